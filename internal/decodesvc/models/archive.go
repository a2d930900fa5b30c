package models

import "time"

// Deck is the raw upload kept in the archive until it expires.
type Deck struct {
	BatchID   string    `bson:"batch_id" json:"batch_id"`
	Source    string    `bson:"source" json:"source"`
	Raw       string    `bson:"raw" json:"raw"`
	Size      int       `bson:"size" json:"size"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}
