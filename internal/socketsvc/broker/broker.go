package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/punchcard-services/internal/comm"
)

type Broker struct {
	Conn      *nats.Conn
	Broadcast func(*comm.WSMessage) int
}

func NewBroker(conn *nats.Conn, fncBroadcast func(*comm.WSMessage) int) *Broker {
	return &Broker{
		Conn:      conn,
		Broadcast: fncBroadcast,
	}
}

// consume decode events
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// handleMessages receive message from decode service
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	err := json.Unmarshal(msgNats.Data, message)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	switch message.Type {
	case comm.TypeCardDecoded, comm.TypeBatchDecoded:
		n := b.Broadcast(message)
		log.Debugf("%s delivered to %d sockets", message.Type, n)
	default:
		log.Errorf("Unknown message %s", message.Type)
	}
}
