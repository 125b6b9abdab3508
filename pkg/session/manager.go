package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/internal/logging"
	"github.com/aretw0/wayfinder/pkg/adapters/stream"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when no live session has the given ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when creating a session with an ID already in use.
	ErrSessionExists = errors.New("session already exists")
	// ErrTooManySessions is returned when the manager is at capacity.
	ErrTooManySessions = errors.New("too many live sessions")
)

// DefaultLockTTL bounds how long a distributed layout lock is held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Handle is a live session together with the publisher it renders to.
type Handle struct {
	Session   *wayfinder.Session
	Publisher *stream.Publisher
	Created   time.Time
}

// Spec describes a session to create.
type Spec struct {
	// ID is optional; a random UUID is used when empty.
	ID string
	// Layout names a stored layout to load. Empty means a blank grid.
	Layout string
	// Options are applied after the manager's defaults.
	Options []wayfinder.Option
}

// Manager owns the live sessions of a process and orchestrates access to the
// layout store, ensuring layout writes are serialized.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.LayoutStore

	mu    sync.Mutex            // Global lock for the maps
	locks map[string]*lockEntry // Map of active layout locks
	live  map[string]*Handle

	locker     ports.DistributedLocker // Optional distributed locker
	lockTTL    time.Duration
	maxLive    int
	defaults   []wayfinder.Option
	publishing []stream.Option
	onCount    func(int)
	logger     *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking of layout writes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager and its sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMaxSessions caps the number of live sessions. Zero means unlimited.
func WithMaxSessions(n int) Option {
	return func(m *Manager) {
		m.maxLive = n
	}
}

// WithSessionDefaults sets options applied to every new session.
func WithSessionDefaults(opts ...wayfinder.Option) Option {
	return func(m *Manager) {
		m.defaults = append(m.defaults, opts...)
	}
}

// WithPublisherOptions configures the publisher created for every session.
func WithPublisherOptions(opts ...stream.Option) Option {
	return func(m *Manager) {
		m.publishing = append(m.publishing, opts...)
	}
}

// WithSessionCount registers a callback invoked with the live session count
// whenever it changes.
func WithSessionCount(fn func(n int)) Option {
	return func(m *Manager) {
		m.onCount = fn
	}
}

// NewManager creates a new Session Manager backed by the given layout store.
func NewManager(store ports.LayoutStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*Handle),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes a function while holding the lock for a layout name.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"layout", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Create starts a new live session, loading its layout from the store if one is named.
func (m *Manager) Create(ctx context.Context, spec Spec) (*Handle, error) {
	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}

	var layout *domain.Layout
	if spec.Layout != "" {
		var err error
		layout, err = m.LoadLayout(ctx, spec.Layout)
		if err != nil {
			return nil, err
		}
	}

	// Reserve the ID before the session's loop is started.
	m.mu.Lock()
	if _, exists := m.live[id]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	if m.maxLive > 0 && len(m.live) >= m.maxLive {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w (max %d)", ErrTooManySessions, m.maxLive)
	}
	m.live[id] = nil
	m.mu.Unlock()

	pub := stream.NewPublisher(append([]stream.Option{stream.WithLogger(m.logger)}, m.publishing...)...)
	opts := []wayfinder.Option{
		wayfinder.WithLogger(m.logger),
	}
	opts = append(opts, m.defaults...)
	opts = append(opts, spec.Options...)
	opts = append(opts, wayfinder.WithID(id), wayfinder.WithRenderer(pub))
	if layout != nil {
		opts = append(opts, wayfinder.WithLayout(layout))
	}

	s, err := wayfinder.New(opts...)
	if err != nil {
		m.mu.Lock()
		delete(m.live, id)
		m.mu.Unlock()
		pub.Close()
		return nil, err
	}

	h := &Handle{Session: s, Publisher: pub, Created: time.Now()}
	m.mu.Lock()
	m.live[id] = h
	n := len(m.live)
	m.mu.Unlock()

	m.logger.Info("Session created", "session", id, "layout", spec.Layout)
	m.notify(n)
	return h, nil
}

// Get returns the live session with the given ID.
func (m *Manager) Get(id string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.live[id]
	if !ok || h == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return h, nil
}

// Close stops a live session and ends its subscriptions.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	h, ok := m.live[id]
	if !ok || h == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.live, id)
	n := len(m.live)
	m.mu.Unlock()

	h.Session.Close()
	h.Publisher.Close()
	m.logger.Info("Session closed", "session", id)
	m.notify(n)
	return nil
}

// Sessions returns the IDs of live sessions, sorted.
func (m *Manager) Sessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.live))
	for id, h := range m.live {
		if h != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Shutdown closes every live session.
func (m *Manager) Shutdown() {
	for _, id := range m.Sessions() {
		_ = m.Close(id)
	}
}

func (m *Manager) notify(n int) {
	if m.onCount != nil {
		m.onCount(n)
	}
}

// LoadLayout retrieves a layout from the store.
func (m *Manager) LoadLayout(ctx context.Context, name string) (*domain.Layout, error) {
	var layout *domain.Layout
	err := m.WithLock(ctx, name, func(ctx context.Context) error {
		var err error
		layout, err = m.store.Load(ctx, name)
		return err
	})
	return layout, err
}

// SaveLayout validates and persists a layout.
func (m *Manager) SaveLayout(ctx context.Context, layout *domain.Layout) error {
	if err := layout.Validate(); err != nil {
		return err
	}
	return m.WithLock(ctx, layout.Name, func(ctx context.Context) error {
		return m.store.Save(ctx, layout)
	})
}

// DeleteLayout removes a layout from the store.
func (m *Manager) DeleteLayout(ctx context.Context, name string) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		return m.store.Delete(ctx, name)
	})
}

// ListLayouts delegates to the store.
func (m *Manager) ListLayouts(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Capture saves the current grid of a live session as a layout named name.
// Named locations of the session's original layout are carried over.
func (m *Manager) Capture(ctx context.Context, id, name string) (*domain.Layout, error) {
	h, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	snap, err := h.Session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	layout := &domain.Layout{
		Name:   name,
		Width:  snap.Width,
		Height: snap.Height,
		Start:  snap.Start,
		End:    snap.End,
		Walls:  snap.Walls,
	}
	if src := h.Session.Layout(); src != nil && len(src.Locations) > 0 {
		layout.Locations = make(map[string]domain.Point, len(src.Locations))
		for k, v := range src.Locations {
			layout.Locations[k] = v
		}
	}
	if err := m.SaveLayout(ctx, layout); err != nil {
		return nil, err
	}
	return layout, nil
}

// Store returns the underlying layout store.
func (m *Manager) Store() ports.LayoutStore {
	return m.store
}
