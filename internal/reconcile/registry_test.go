package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	s := r.Create("dana")

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	r.Remove(s.ID)
	_, err = r.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistryPrune(t *testing.T) {
	r := NewRegistry()
	old := r.Create("dana")
	fresh := r.Create("lee")

	old.mu.Lock()
	old.UpdatedAt = time.Now().UTC().Add(-3 * time.Hour)
	old.mu.Unlock()

	assert.Equal(t, 1, r.Prune(time.Hour))

	_, err := r.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestRegistryPruneDoesNotBlockOnBusySession(t *testing.T) {
	r := NewRegistry()
	busy := r.Create("dana")

	busy.mu.Lock()
	pruned := make(chan int, 1)
	go func() { pruned <- r.Prune(time.Hour) }()

	created := make(chan *Session, 1)
	go func() {
		// give Prune time to reach the busy session
		time.Sleep(20 * time.Millisecond)
		created <- r.Create("lee")
	}()

	var other *Session
	require.Eventually(t, func() bool {
		select {
		case other = <-created:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	_, err := r.Get(other.ID)
	assert.NoError(t, err)

	busy.mu.Unlock()
	assert.Equal(t, 0, <-pruned)
	assert.Equal(t, 2, r.Len())
}
