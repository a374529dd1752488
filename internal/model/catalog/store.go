package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCatalogQueryFailed = errors.New("catalog query failed")
)

// Match is one catalog row returned by a query.
type Match struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Store answers filter queries against the read-only catalog.
type Store interface {
	Query(ctx context.Context, filter Filter) ([]Match, error)
}

// MemoryStore implements Store over an in-memory slice, suitable for local runs and tests.
type MemoryStore struct {
	items []Item
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied items.
func NewMemoryStore(items []Item) *MemoryStore {
	return &MemoryStore{items: append([]Item(nil), items...)}
}

// List returns the catalog contents.
func (s *MemoryStore) List() []Item {
	return append([]Item(nil), s.items...)
}

// Query returns the items satisfying every constraint, in catalog order.
func (s *MemoryStore) Query(ctx context.Context, filter Filter) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogQueryFailed, err)
	}

	matches := make([]Match, 0, len(s.items))
	for _, item := range s.items {
		if filter.Matches(item) {
			matches = append(matches, Match{Name: item.Name, Price: item.Price})
		}
	}
	return matches, nil
}
