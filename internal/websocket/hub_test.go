package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckreceive/internal/logging"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logging.Nop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *gws.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestPublishReachesSubscribersOnly(t *testing.T) {
	hub, srv := startHub(t)
	follower := dial(t, srv, "?session=s-1")
	dial(t, srv, "?session=s-2")

	require.Eventually(t, func() bool {
		return hub.Subscribers("s-1") == 1 && hub.Subscribers("s-2") == 1
	}, 2*time.Second, 10*time.Millisecond)

	sent := hub.Publish("s-1", "session.updated", map[string]string{"stage": "receipt"})
	assert.Equal(t, 1, sent)

	ev := readEvent(t, follower)
	assert.Equal(t, "session.updated", ev["type"])
	assert.Equal(t, "s-1", ev["sessionId"])
}

func TestSubscribeMessageSwitchesSession(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "")

	require.NoError(t, conn.WriteJSON(ControlMessage{Type: "SUBSCRIBE", SessionID: "s-9", MsgID: "m1"}))
	ack := readEvent(t, conn)
	assert.Equal(t, "ACK", ack["type"])
	assert.Equal(t, "m1", ack["msgId"])

	require.Eventually(t, func() bool { return hub.Subscribers("s-9") == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.Publish("s-9", "session.updated", nil))
}
