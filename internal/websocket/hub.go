// Package websocket pushes session snapshots to the browsers following a
// receiving session.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event is one message pushed to subscribers
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Hub maintains the set of active clients and fans session events out to them
type Hub struct {
	// Registered clients map: ClientID -> Client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu  sync.RWMutex
	log *zap.SugaredLogger
}

// NewHub creates a new Hub instance
func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
		log:        log,
	}
}

// Run handles registrations until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok && old != client {
				close(old.send)
			}
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.log.Debugw("feed client connected", "client", client.ID, "session", client.sessionID())

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.ID]; ok && cur == client {
				delete(h.clients, client.ID)
				close(client.send)
				h.log.Debugw("feed client disconnected", "client", client.ID)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Subscribers counts clients following sessionID
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.sessionID() == sessionID {
			n++
		}
	}
	return n
}

// Publish sends an event to every client following sessionID and returns how
// many received it. Slow clients are skipped.
func (h *Hub) Publish(sessionID, eventType string, payload interface{}) int {
	msg, err := json.Marshal(Event{Type: eventType, SessionID: sessionID, Payload: payload})
	if err != nil {
		h.log.Errorw("failed to marshal feed event", "type", eventType, "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, c := range h.clients {
		if c.sessionID() != sessionID {
			continue
		}
		select {
		case c.send <- msg:
			sent++
		default:
			// Buffer full or client dead
		}
	}
	return sent
}
