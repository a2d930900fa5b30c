package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/punchcard-services/internal/comm"
	"github.com/avvvet/punchcard-services/internal/socketsvc/ws"
)

func newServer(t *testing.T) (*httptest.Server, *ws.Ws, string) {
	t.Helper()

	auth := InitAuth("test-secret")
	_, token, err := auth.Encode(map[string]interface{}{
		"service_id": "test",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	s := ws.NewWs()
	r := chi.NewRouter()
	SetRoutes(r, s, auth, "8081")

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, s, token
}

func readType(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg comm.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg.Type
}

func TestHealthRequiresToken(t *testing.T) {
	srv, _, token := newServer(t)

	rsp, err := http.Get(srv.URL + "/v1/health")
	require.NoError(t, err)
	rsp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, rsp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	rsp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	rsp.Body.Close()
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
}

func TestSocketSubscribeAndBroadcast(t *testing.T) {
	srv, s, _ := newServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	sub, err := comm.NewWSMessage(comm.TypeSubscribe, comm.Subscription{BatchId: "b1"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(sub))

	// messages are handled in order, so the error reply means the
	// subscription is in place
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, comm.TypeError, readType(t, conn))

	other, err := comm.NewWSMessage(comm.TypeBatchDecoded, comm.BatchSummary{BatchId: "b2"})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Broadcast(other))

	mine, err := comm.NewWSMessage(comm.TypeCardDecoded, comm.DecodedCard{BatchId: "b1", Message: "HI"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Broadcast(mine))
	assert.Equal(t, comm.TypeCardDecoded, readType(t, conn))
}
