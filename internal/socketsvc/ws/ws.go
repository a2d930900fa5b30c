package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/punchcard-services/internal/comm"
)

// Client is one browser connection. Writes are serialized because a
// websocket connection supports a single concurrent writer.
type Client struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	batchId string // empty means every batch
}

func (c *Client) Send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Client) filter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batchId
}

func (c *Client) setFilter(batchId string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchId = batchId
}

type Ws struct {
	connMap sync.Map // to keep track of socket connection with socketId
}

func NewWs() *Ws {
	return &Ws{}
}

// handle socket message from web clients
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case comm.TypeSubscribe:
		s.handleSubscribe(socketId, message)
	case comm.TypeUnsubscribe:
		if c, ok := s.GetConnection(socketId); ok {
			c.setFilter("")
			log.Infof("socket %s unsubscribed", socketId)
		}
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) handleSubscribe(socketId string, msg *comm.WSMessage) {
	var payload comm.Subscription
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: invalid_subscribe_data Malformed subscribe payload %s", err)
		return
	}

	if payload.BatchId == "" {
		log.Error("Invalid subscribe payload: missing batch_id")
		return
	}

	c, ok := s.GetConnection(socketId)
	if !ok {
		return
	}
	c.setFilter(payload.BatchId)
	log.Infof("socket %s subscribed to batch %s", socketId, payload.BatchId)
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, &Client{conn: conn})
}

func (s *Ws) GetConnection(socketId string) (*Client, bool) {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return c.(*Client), true
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
}

// Broadcast sends m to every socket whose filter accepts it and returns how
// many sockets received it.
func (s *Ws) Broadcast(m *comm.WSMessage) int {
	var target struct {
		BatchId string `json:"batch_id"`
	}
	if err := json.Unmarshal(m.Data, &target); err != nil {
		log.Warnf("broadcast payload without batch id: %s", err)
	}

	sent := 0
	s.connMap.Range(func(key, value interface{}) bool {
		c := value.(*Client)
		if f := c.filter(); f != "" && f != target.BatchId {
			return true
		}
		if err := c.Send(m); err != nil {
			log.Errorf("Failed to send %s to socket %s: %v", m.Type, key, err)
			return true
		}
		sent++
		return true
	})
	return sent
}
