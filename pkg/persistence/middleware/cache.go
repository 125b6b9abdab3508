package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
)

type cacheEntry struct {
	layout  *domain.Layout
	expires time.Time
}

type cacheMiddleware struct {
	next ports.LayoutStore
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCacheMiddleware keeps loaded layouts in memory for ttl.
// Writes through the middleware invalidate the cached copy; writes made by
// other processes become visible once the entry expires.
func NewCacheMiddleware(ttl time.Duration) Middleware {
	return newCacheMiddleware(ttl, time.Now)
}

func newCacheMiddleware(ttl time.Duration, now func() time.Time) Middleware {
	return func(next ports.LayoutStore) ports.LayoutStore {
		return &cacheMiddleware{
			next:    next,
			ttl:     ttl,
			now:     now,
			entries: make(map[string]cacheEntry),
		}
	}
}

func (m *cacheMiddleware) Save(ctx context.Context, layout *domain.Layout) error {
	m.forget(layout.Name)
	return m.next.Save(ctx, layout)
}

func (m *cacheMiddleware) Load(ctx context.Context, name string) (*domain.Layout, error) {
	m.mu.Lock()
	e, ok := m.entries[name]
	m.mu.Unlock()
	if ok && m.now().Before(e.expires) {
		return e.layout.Clone(), nil
	}

	layout, err := m.next.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.entries[name] = cacheEntry{layout: layout.Clone(), expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return layout, nil
}

func (m *cacheMiddleware) Delete(ctx context.Context, name string) error {
	m.forget(name)
	return m.next.Delete(ctx, name)
}

func (m *cacheMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *cacheMiddleware) forget(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
}
