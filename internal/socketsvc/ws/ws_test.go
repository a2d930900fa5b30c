package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/punchcard-services/internal/comm"
)

// pair returns the server side and client side of one websocket connection.
func pair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server := <-serverConns
	t.Cleanup(func() { server.Close() })
	return server, client
}

func read(t *testing.T, conn *websocket.Conn) *comm.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg comm.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

func TestBroadcastHonoursSubscription(t *testing.T) {
	s := NewWs()

	serverA, clientA := pair(t)
	serverB, clientB := pair(t)
	s.StoreConnection("a", serverA)
	s.StoreConnection("b", serverB)

	sub, err := comm.NewWSMessage(comm.TypeSubscribe, comm.Subscription{BatchId: "batch-2"})
	require.NoError(t, err)
	s.SocketMessage("b", sub)

	first, err := comm.NewWSMessage(comm.TypeCardDecoded, comm.DecodedCard{BatchId: "batch-1", Message: "ONE"})
	require.NoError(t, err)
	second, err := comm.NewWSMessage(comm.TypeCardDecoded, comm.DecodedCard{BatchId: "batch-2", Message: "TWO"})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Broadcast(first))
	assert.Equal(t, 2, s.Broadcast(second))

	assert.Contains(t, string(read(t, clientA).Data), "ONE")
	assert.Contains(t, string(read(t, clientA).Data), "TWO")
	assert.Contains(t, string(read(t, clientB).Data), "TWO")
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	s := NewWs()

	server, client := pair(t)
	s.StoreConnection("a", server)

	sub, _ := comm.NewWSMessage(comm.TypeSubscribe, comm.Subscription{BatchId: "x"})
	s.SocketMessage("a", sub)

	msg, _ := comm.NewWSMessage(comm.TypeBatchDecoded, comm.BatchSummary{BatchId: "y"})
	assert.Equal(t, 0, s.Broadcast(msg))

	s.SocketMessage("a", &comm.WSMessage{Type: comm.TypeUnsubscribe})
	assert.Equal(t, 1, s.Broadcast(msg))
	assert.Equal(t, comm.TypeBatchDecoded, read(t, client).Type)

	s.HandleDisconnect("a")
	_, ok := s.GetConnection("a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Broadcast(msg))
}

func TestSubscribeNeedsBatchId(t *testing.T) {
	s := NewWs()
	server, _ := pair(t)
	s.StoreConnection("a", server)

	s.SocketMessage("a", &comm.WSMessage{Type: comm.TypeSubscribe, Data: []byte(`{}`)})

	c, ok := s.GetConnection("a")
	require.True(t, ok)
	assert.Empty(t, c.filter())
}
