package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// Store implements ports.LayoutStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Layout
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store, optionally seeded with layouts.
func NewStore(seed ...*domain.Layout) *Store {
	s := &Store{
		data: make(map[string]*domain.Layout),
	}
	for _, l := range seed {
		s.data[l.Name] = l.Clone()
	}
	return s
}

// Save persists the layout in memory.
func (s *Store) Save(ctx context.Context, layout *domain.Layout) error {
	if layout.Name == "" {
		return fmt.Errorf("layout name cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[layout.Name] = layout.Clone()
	return nil
}

// Load retrieves a copy of the layout.
func (s *Store) Load(ctx context.Context, name string) (*domain.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layout, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrLayoutNotFound, name)
	}
	return layout.Clone(), nil
}

// Delete removes the layout.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns the stored layout names, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
