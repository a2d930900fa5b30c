package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/avvvet/punchcard-services/internal/db"
	"github.com/avvvet/punchcard-services/internal/decodesvc/models"
)

const Collection = "decks"

var ErrDeckNotFound = errors.New("deck not found")

// ArchiveStore keeps raw decks for a limited time so a batch can be decoded
// again later.
type ArchiveStore struct {
	coll *mongo.Collection
	ttl  time.Duration
}

func NewArchiveStore(database *mongo.Database, ttl time.Duration) *ArchiveStore {
	return &ArchiveStore{coll: database.Collection(Collection), ttl: ttl}
}

// Init creates the expiry index.
func (s *ArchiveStore) Init(ctx context.Context) error {
	if err := db.CreateTTLIndexForCollection(ctx, s.coll.Database(), Collection); err != nil {
		return fmt.Errorf("failed to create ttl index: %w", err)
	}
	return nil
}

func (s *ArchiveStore) SaveDeck(ctx context.Context, batchID, source, raw string) error {
	now := time.Now().UTC()
	deck := models.Deck{
		BatchID:   batchID,
		Source:    source,
		Raw:       raw,
		Size:      len(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if _, err := s.coll.InsertOne(ctx, deck); err != nil {
		return fmt.Errorf("failed to archive deck: %w", err)
	}
	return nil
}

func (s *ArchiveStore) GetDeck(ctx context.Context, batchID string) (*models.Deck, error) {
	var deck models.Deck
	err := s.coll.FindOne(ctx, bson.M{"batch_id": batchID}).Decode(&deck)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDeckNotFound
		}
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	return &deck, nil
}
