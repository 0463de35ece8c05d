package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4 * 1024
)

var errClientGone = errors.New("client is no longer registered")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	ID string

	mu      sync.RWMutex
	session string
}

// ControlMessage is sent by the browser to change its subscription
type ControlMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	MsgID     string `json:"msgId,omitempty"`
}

func (c *Client) sessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) follow(sessionID string) {
	c.mu.Lock()
	c.session = sessionID
	c.mu.Unlock()
}

// readPump handles SUBSCRIBE messages until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warnw("feed read error", "client", c.ID, "error", err)
			}
			break
		}

		var msg ControlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "SUBSCRIBE" && msg.SessionID != "" {
			c.follow(msg.SessionID)
			c.SendJSON(map[string]string{
				"type":      "ACK",
				"msgId":     msg.MsgID,
				"sessionId": msg.SessionID,
			})
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON queues a JSON message for the client without blocking
func (c *Client) SendJSON(v interface{}) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}
	// send is closed by the hub under its lock once the client is dropped
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.hub.clients[c.ID] != c {
		return errClientGone
	}
	select {
	case c.send <- msg:
	default:
	}
	return nil
}

// ServeWs upgrades the request. A ?session= query parameter subscribes the
// client right away.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 64),
		ID:      "web_" + uuid.NewString(),
		session: r.URL.Query().Get("session"),
	}
	if !hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
