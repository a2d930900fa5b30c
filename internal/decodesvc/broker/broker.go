package broker

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/punchcard-services/internal/comm"
	"github.com/avvvet/punchcard-services/internal/decodesvc/service"
)

type Broker struct {
	Conn          *nats.Conn
	DecodeService *service.DecodeService

	publish func(topic string, payload []byte) error
}

func NewBroker(nc *nats.Conn, decodeService *service.DecodeService) *Broker {
	b := &Broker{
		Conn:          nc,
		DecodeService: decodeService,
	}
	b.publish = func(topic string, payload []byte) error {
		return b.Conn.Publish(topic, payload)
	}
	return b
}

// QueueSubscribeDecodeRequests serves decode.request; replicas share the load
// through the queue group.
func (b *Broker) QueueSubscribeDecodeRequests() (*nats.Subscription, error) {
	return b.Conn.QueueSubscribe(comm.SubjectDecodeRequest, comm.QueueDecoders, b.handleDecodeRequest)
}

// handles request coming from other services
func (b *Broker) handleDecodeRequest(msgNat *nats.Msg) {
	reply := b.decodeReply(msgNat.Data)

	bytes, err := json.Marshal(reply)
	if err != nil {
		log.Errorf("Error marshal decode reply %s", err)
		return
	}

	if msgNat.Reply == "" {
		log.Warn("decode request without reply subject, dropping result")
		return
	}
	if err := msgNat.Respond(bytes); err != nil {
		log.Errorf("Error responding to decode request: %s", err)
	}
}

func (b *Broker) decodeReply(data []byte) comm.DecodeReply {
	var req comm.DecodeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Errorf("Error nats message %s", err)
		return comm.DecodeReply{Cards: []comm.DecodedCard{}, Error: "malformed decode request"}
	}

	decoded := b.DecodeService.Decode(req.Deck)
	log.Infof("decoded %d cards for nats request", len(decoded.Results))

	return comm.DecodeReply{
		Cards:    comm.CardsFromBatch("", decoded),
		Warnings: comm.WarningsFromBatch(decoded),
	}
}

// PublishBatch announces every card of a stored batch and then the batch
// itself on decode.service.
func (b *Broker) PublishBatch(summary comm.BatchSummary, cards []comm.DecodedCard) error {
	for _, c := range cards {
		if err := b.publishMessage(comm.TypeCardDecoded, c); err != nil {
			return err
		}
	}
	return b.publishMessage(comm.TypeBatchDecoded, summary)
}

func (b *Broker) publishMessage(msgType string, data interface{}) error {
	msg, err := comm.NewWSMessage(msgType, data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", msgType, err)
	}

	bytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", msgType, err)
	}

	if err := b.publish(comm.SubjectDecodeService, bytes); err != nil {
		log.Errorf("Error publishing to topic %s: %s", comm.SubjectDecodeService, err)
		return err
	}
	return nil
}
