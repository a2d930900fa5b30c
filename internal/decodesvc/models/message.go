package models

import "time"

type Message struct {
	ID        int64     `json:"id"` // Primary key
	BatchID   string    `json:"batch_id"`
	CardIndex int       `json:"card_index"` // 0-based position in the deck
	Text      string    `json:"text"`
	Error     string    `json:"error,omitempty"`
	Undefined int       `json:"undefined"`
	CreatedAt time.Time `json:"created_at"`
}
