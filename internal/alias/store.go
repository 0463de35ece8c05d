// Package alias keeps the learned mapping from receipt text to products.
package alias

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xelth-com/eckreceive/internal/utils"
)

// ErrNotFound is returned when deleting an alias that does not exist
var ErrNotFound = errors.New("alias not found")

// Alias maps receipt text, optionally scoped to one store, to a product
type Alias struct {
	ID        uint    `json:"id"`
	StoreName *string `json:"store_name"`
	Text      string  `json:"receipt_text"`
	ProductID string  `json:"product_id"`
}

// Repository persists aliases. List returns them in insertion order.
type Repository interface {
	List(ctx context.Context) ([]Alias, error)
	Create(ctx context.Context, a Alias) (Alias, error)
	Delete(ctx context.Context, id uint) error
}

// Store is an in-memory view of the alias repository. Each receiving session
// loads its own Store; writes go through to the repository.
type Store struct {
	repo Repository

	mu      sync.RWMutex
	aliases []Alias
}

// NewStore returns an empty store backed by repo
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Load replaces the cached aliases with the repository contents
func (s *Store) Load(ctx context.Context) error {
	list, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load aliases: %w", err)
	}
	s.mu.Lock()
	s.aliases = list
	s.mu.Unlock()
	return nil
}

// All returns a copy of the cached aliases
func (s *Store) All() []Alias {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Alias, len(s.aliases))
	copy(out, s.aliases)
	return out
}

// Candidates returns, in load order, every alias applicable to storeName whose
// text contains or is contained in text.
func (s *Store) Candidates(storeName, text string) []Alias {
	needle := utils.Fold(text)
	if needle == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Alias
	for _, a := range s.aliases {
		if !inScope(a, storeName) {
			continue
		}
		hay := utils.Fold(a.Text)
		if hay == "" {
			continue
		}
		if strings.Contains(needle, hay) || strings.Contains(hay, needle) {
			out = append(out, a)
		}
	}
	return out
}

// Lookup returns the product of the first alias matching text
func (s *Store) Lookup(storeName, text string) (string, bool) {
	if c := s.Candidates(storeName, text); len(c) > 0 {
		return c[0].ProductID, true
	}
	return "", false
}

// Remember appends an alias. Text is stored upper-cased and trimmed; an empty
// store name makes the alias apply to every store. No de-duplication is done.
func (s *Store) Remember(ctx context.Context, storeName, text, productID string) (Alias, error) {
	normalized := strings.ToUpper(strings.TrimSpace(text))
	if normalized == "" {
		return Alias{}, fmt.Errorf("receipt text is required")
	}
	if productID == "" {
		return Alias{}, fmt.Errorf("product id is required")
	}

	a := Alias{Text: normalized, ProductID: productID}
	if store := strings.TrimSpace(storeName); store != "" {
		a.StoreName = &store
	}

	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return Alias{}, fmt.Errorf("failed to save alias: %w", err)
	}

	s.mu.Lock()
	s.aliases = append(s.aliases, created)
	s.mu.Unlock()
	return created, nil
}

// Delete removes an alias from the repository and the cache
func (s *Store) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete alias %d: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.aliases {
		if a.ID == id {
			s.aliases = append(s.aliases[:i], s.aliases[i+1:]...)
			break
		}
	}
	return nil
}

func inScope(a Alias, storeName string) bool {
	if a.StoreName == nil {
		return true
	}
	return utils.Fold(*a.StoreName) == utils.Fold(storeName)
}
