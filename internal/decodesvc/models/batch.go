package models

import "time"

type Batch struct {
	ID        string     `json:"id"`     // uuid
	Source    string     `json:"source"` // file name or upload channel
	Policy    string     `json:"policy"` // undefined pattern policy used for the run
	Cards     int        `json:"cards"`
	Failed    int        `json:"failed"`
	Warnings  []string   `json:"warnings,omitempty"`
	Messages  []*Message `json:"messages,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
