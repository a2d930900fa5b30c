package comm

import (
	"encoding/json"
	"time"

	"github.com/avvvet/punchcard-services/internal/punchcard/batch"
)

// NATS subjects and queue groups
const (
	SubjectDecodeService = "decode.service" // events published by the decode service
	SubjectDecodeRequest = "decode.request" // request/reply decoding
	QueueDecoders        = "decoders"
)

// message types
const (
	TypeCardDecoded  = "card-decoded"
	TypeBatchDecoded = "batch-decoded"
	TypeSubscribe    = "subscribe"
	TypeUnsubscribe  = "unsubscribe"
	TypeError        = "error"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "card-decoded", "subscribe"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
}

func NewWSMessage(msgType string, data interface{}) (*WSMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &WSMessage{Type: msgType, Data: raw}, nil
}

// Subscription narrows a socket to the events of one batch.
type Subscription struct {
	BatchId string `json:"batch_id"`
}

type DecodeRequest struct {
	Deck string `json:"deck"`
}

type DecodedCard struct {
	BatchId   string   `json:"batch_id,omitempty"`
	Index     int      `json:"index"`  // 0-based
	Number    int      `json:"number"` // 1-based, for display
	Message   string   `json:"message"`
	Error     string   `json:"error,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Undefined int      `json:"undefined"` // columns with no table entry
}

type DecodeReply struct {
	Cards    []DecodedCard `json:"cards"`
	Warnings []string      `json:"warnings,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type BatchSummary struct {
	BatchId   string    `json:"batch_id"`
	Cards     int       `json:"cards"`
	Failed    int       `json:"failed"`
	CreatedAt time.Time `json:"created_at"`
}

// CardsFromBatch flattens a decoded batch into wire cards.
func CardsFromBatch(batchId string, b *batch.Batch) []DecodedCard {
	cards := make([]DecodedCard, 0, len(b.Results))
	for _, r := range b.Results {
		dc := DecodedCard{
			BatchId:   batchId,
			Index:     r.Index,
			Number:    r.Index + 1,
			Message:   r.Message,
			Undefined: len(r.Undefined),
		}
		if r.Err != nil {
			dc.Error = r.Err.Error()
		}
		for _, w := range r.Warnings {
			dc.Warnings = append(dc.Warnings, w.Error())
		}
		cards = append(cards, dc)
	}
	return cards
}

func WarningsFromBatch(b *batch.Batch) []string {
	var out []string
	for _, w := range b.Warnings {
		out = append(out, w.Error())
	}
	return out
}
