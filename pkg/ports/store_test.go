package ports_test

import (
	"context"
	"sort"
	"testing"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/aretw0/wayfinder/pkg/ports/tests"
)

// MockStore is an in-memory implementation of LayoutStore for testing purposes.
type MockStore struct {
	data map[string]domain.Layout
}

var _ ports.LayoutStore = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.Layout),
	}
}

func (m *MockStore) Save(ctx context.Context, layout *domain.Layout) error {
	// Shallow copy is enough here: the contract never mutates after saving.
	m.data[layout.Name] = *layout
	return nil
}

func (m *MockStore) Load(ctx context.Context, name string) (*domain.Layout, error) {
	layout, ok := m.data[name]
	if !ok {
		return nil, domain.ErrLayoutNotFound
	}
	return &layout, nil
}

func (m *MockStore) Delete(ctx context.Context, name string) error {
	delete(m.data, name)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.data))
	for n := range m.data {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func TestLayoutStore_Contract(t *testing.T) {
	// Verifies the contract suite itself against the simplest possible store.
	tests.RunLayoutStoreContract(t, NewMockStore())
}

func TestFinderFunc(t *testing.T) {
	called := false
	var f ports.Finder = ports.FinderFunc(func(start, end domain.Point, grid *domain.Grid) domain.Path {
		called = true
		return domain.Path{start, end}
	})

	path := f.FindPath(domain.Point{X: 0, Y: 0}, domain.Point{X: 1, Y: 0}, domain.NewGrid(2, 1))
	if !called {
		t.Fatal("expected FinderFunc to call the wrapped function")
	}
	if len(path) != 2 {
		t.Errorf("expected 2 points, got %d", len(path))
	}
}
