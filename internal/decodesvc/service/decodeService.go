package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/punchcard-services/internal/comm"
	"github.com/avvvet/punchcard-services/internal/decodesvc/models"
	"github.com/avvvet/punchcard-services/internal/punchcard/batch"
)

type BatchRepository interface {
	SaveBatch(ctx context.Context, b *models.Batch) error
	GetBatchByID(ctx context.Context, id string) (*models.Batch, error)
	ListBatches(ctx context.Context, limit int) ([]*models.Batch, error)
}

type DeckArchive interface {
	SaveDeck(ctx context.Context, batchID, source, raw string) error
	GetDeck(ctx context.Context, batchID string) (*models.Deck, error)
}

type Publisher interface {
	PublishBatch(summary comm.BatchSummary, cards []comm.DecodedCard) error
}

type DecodeService struct {
	driver    *batch.Driver
	batches   BatchRepository
	archive   DeckArchive // optional
	publisher Publisher   // optional
}

func NewDecodeService(driver *batch.Driver, batches BatchRepository, archive DeckArchive, publisher Publisher) *DecodeService {
	return &DecodeService{
		driver:    driver,
		batches:   batches,
		archive:   archive,
		publisher: publisher,
	}
}

// SetPublisher is used when the publisher itself needs the service.
func (s *DecodeService) SetPublisher(p Publisher) {
	s.publisher = p
}

// Decode runs the deck through the driver without storing anything.
func (s *DecodeService) Decode(raw string) *batch.Batch {
	return s.driver.Run(raw)
}

// DecodeAndStore decodes raw, saves the batch and then archives and
// announces it. Only a failed save is returned as an error; archive and
// publish failures are logged.
func (s *DecodeService) DecodeAndStore(ctx context.Context, source, raw string) (*models.Batch, error) {
	decoded := s.driver.Run(raw)

	b := &models.Batch{
		ID:       uuid.New().String(),
		Source:   source,
		Policy:   s.driver.Options().Policy.String(),
		Cards:    len(decoded.Results),
		Failed:   decoded.Failed(),
		Warnings: comm.WarningsFromBatch(decoded),
	}
	cards := comm.CardsFromBatch(b.ID, decoded)
	for _, c := range cards {
		b.Messages = append(b.Messages, &models.Message{
			BatchID:   b.ID,
			CardIndex: c.Index,
			Text:      c.Message,
			Error:     c.Error,
			Undefined: c.Undefined,
		})
	}

	if err := s.batches.SaveBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to store batch: %w", err)
	}
	log.Infof("batch %s stored: %d cards, %d failed", b.ID, b.Cards, b.Failed)

	if s.archive != nil {
		if err := s.archive.SaveDeck(ctx, b.ID, source, raw); err != nil {
			log.Errorf("Error [ArchiveStore.SaveDeck] batch %s: %s", b.ID, err)
		}
	}

	if s.publisher != nil {
		summary := comm.BatchSummary{
			BatchId:   b.ID,
			Cards:     b.Cards,
			Failed:    b.Failed,
			CreatedAt: b.CreatedAt,
		}
		if err := s.publisher.PublishBatch(summary, cards); err != nil {
			log.Errorf("Error [Broker.PublishBatch] batch %s: %s", b.ID, err)
		}
	}

	return b, nil
}

func (s *DecodeService) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	return s.batches.GetBatchByID(ctx, id)
}

func (s *DecodeService) ListBatches(ctx context.Context, limit int) ([]*models.Batch, error) {
	return s.batches.ListBatches(ctx, limit)
}

// GetDeck returns the archived upload, or ErrNoArchive when archiving is off.
func (s *DecodeService) GetDeck(ctx context.Context, batchID string) (*models.Deck, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}
	return s.archive.GetDeck(ctx, batchID)
}
