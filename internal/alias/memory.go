package alias

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepository is a process-local Repository
type MemoryRepository struct {
	mu     sync.Mutex
	nextID uint
	rows   []Alias
}

// NewMemoryRepository returns a repository seeded with aliases, ids assigned in order
func NewMemoryRepository(seed ...Alias) *MemoryRepository {
	r := &MemoryRepository{}
	for _, a := range seed {
		_, _ = r.Create(context.Background(), a)
	}
	return r
}

func (r *MemoryRepository) List(ctx context.Context) ([]Alias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alias, len(r.rows))
	copy(out, r.rows)
	return out, nil
}

func (r *MemoryRepository) Create(ctx context.Context, a Alias) (Alias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	r.rows = append(r.rows, a)
	return a, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.rows {
		if a.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("alias %d: %w", id, ErrNotFound)
}
