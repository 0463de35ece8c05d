package reconcile

import (
	"sync"
	"time"

	"github.com/xelth-com/eckreceive/internal/metrics"
)

// Registry holds the open receiving sessions of this process
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create starts and registers a new session
func (r *Registry) Create(purchaser string) *Session {
	s := NewSession(purchaser)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	metrics.ActiveSessions.Inc()
	return s
}

// Get returns the session with id
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove forgets a session
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok && !s.Snapshot().Stage.Terminal() {
		metrics.ActiveSessions.Dec()
	}
}

// Len is the number of registered sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune removes sessions untouched for longer than maxAge and returns how many
// were dropped. Closed sessions are kept for maxAge too so clients can still
// fetch the submitted report.
func (r *Registry) Prune(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)

	// session locks are held across a pipeline run; never take one under r.mu
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	var stale []string
	for _, s := range sessions {
		if s.lastTouched().Before(cutoff) {
			stale = append(stale, s.ID)
		}
	}

	for _, id := range stale {
		r.Remove(id)
	}
	return len(stale)
}
