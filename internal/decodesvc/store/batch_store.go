package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/punchcard-services/internal/decodesvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrBatchNotFound = errors.New("batch not found")

type BatchStore struct {
	db *pgxpool.Pool
}

func NewBatchStore(db *pgxpool.Pool) *BatchStore {
	return &BatchStore{db: db}
}

// SaveBatch writes the batch and all of its messages in one transaction.
func (s *BatchStore) SaveBatch(ctx context.Context, b *models.Batch) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	warnings := b.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	query := `
		INSERT INTO batches (id, source, policy, cards, failed, warnings)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, query, b.ID, b.Source, b.Policy, b.Cards, b.Failed, warnings).Scan(&b.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("batch %s already exists", b.ID)
		}
		return fmt.Errorf("failed to save batch: %w", err)
	}

	batch := &pgx.Batch{}
	for _, m := range b.Messages {
		batch.Queue(`
			INSERT INTO messages (batch_id, card_index, text, error, undefined)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, b.ID, m.CardIndex, m.Text, m.Error, m.Undefined)
	}

	results := tx.SendBatch(ctx, batch)
	for _, m := range b.Messages {
		m.BatchID = b.ID
		if err := results.QueryRow().Scan(&m.ID, &m.CreatedAt); err != nil {
			results.Close()
			return fmt.Errorf("failed to save message for card %d: %w", m.CardIndex, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to save messages: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// GetBatchByID returns the batch with its messages in card order.
func (s *BatchStore) GetBatchByID(ctx context.Context, id string) (*models.Batch, error) {
	query := `
		SELECT id, source, policy, cards, failed, warnings, created_at
		FROM batches
		WHERE id = $1
	`

	b := &models.Batch{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Source,
		&b.Policy,
		&b.Cards,
		&b.Failed,
		&b.Warnings,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to get batch by id: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, batch_id, card_index, text, error, undefined, created_at
		FROM messages
		WHERE batch_id = $1
		ORDER BY card_index
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.BatchID, &m.CardIndex, &m.Text, &m.Error, &m.Undefined, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		b.Messages = append(b.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	return b, nil
}

// ListBatches returns the newest batches first, without messages.
func (s *BatchStore) ListBatches(ctx context.Context, limit int) ([]*models.Batch, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, source, policy, cards, failed, warnings, created_at
		FROM batches
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	batches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Batch, error) {
		b := &models.Batch{}
		err := row.Scan(&b.ID, &b.Source, &b.Policy, &b.Cards, &b.Failed, &b.Warnings, &b.CreatedAt)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan batches: %w", err)
	}
	return batches, nil
}
