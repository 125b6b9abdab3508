package wayfinder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/wayfinder/internal/logging"
	"github.com/aretw0/wayfinder/internal/runtime"
	"github.com/aretw0/wayfinder/pkg/adapters/stream"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/finder"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/google/uuid"
)

// ErrNoPrompt is returned by Answer when no endpoint prompt is open.
var ErrNoPrompt = errors.New("no endpoint prompt is pending")

// WallMode selects how a press on an empty cell is interpreted.
type WallMode = runtime.WallMode

const (
	// WallModeAssign opens the endpoint prompt on empty cells.
	WallModeAssign = runtime.WallModeAssign
	// WallModePaint draws and erases walls.
	WallModePaint = runtime.WallModePaint
)

// Session is a running visualizer: a controller and its input dispatcher, both
// confined to a private event loop. All methods are safe for concurrent use.
type Session struct {
	ID string

	loop     *runtime.Loop
	ctrl     *runtime.Controller
	disp     *runtime.Dispatcher
	renderer ports.Renderer
	logger   *slog.Logger
	cancel   context.CancelFunc

	mu      sync.Mutex
	state   domain.State
	changed chan struct{}

	cfg config
}

type config struct {
	id           string
	renderer     ports.Renderer
	finder       ports.Finder
	layout       *domain.Layout
	logger       *slog.Logger
	hooks        domain.LifecycleHooks
	clock        ports.Clock
	opsPerSecond int
	width        int
	height       int
	wallMode     WallMode
	prompt       ports.EndpointPrompt
}

// Option defines a functional option for configuring a Session.
type Option func(*config)

// WithID sets the session identifier (default: a random UUID).
func WithID(id string) Option {
	return func(c *config) {
		c.id = id
	}
}

// WithRenderer sets the view. The default is a stream.Publisher.
func WithRenderer(r ports.Renderer) Option {
	return func(c *config) {
		c.renderer = r
	}
}

// WithFinder sets the pathfinding algorithm (default: A*).
func WithFinder(f ports.Finder) Option {
	return func(c *config) {
		c.finder = f
	}
}

// WithLayout seeds the grid with walls, endpoints and named locations.
func WithLayout(l *domain.Layout) Option {
	return func(c *config) {
		c.layout = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. They run on the session's loop.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithClock sets the timer source behind the session's loop.
func WithClock(clock ports.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithOperationsPerSecond sets the playback rate.
func WithOperationsPerSecond(n int) Option {
	return func(c *config) {
		c.opsPerSecond = n
	}
}

// WithGridSize sets the grid dimensions when no layout is given.
func WithGridSize(width, height int) Option {
	return func(c *config) {
		c.width, c.height = width, height
	}
}

// WithWallMode selects how presses on empty cells are handled.
func WithWallMode(mode WallMode) Option {
	return func(c *config) {
		c.wallMode = mode
	}
}

// WithPrompt sets the endpoint prompt. By default the renderer is used when it
// implements ports.EndpointPrompt.
func WithPrompt(p ports.EndpointPrompt) Option {
	return func(c *config) {
		c.prompt = p
	}
}

// New creates a session, starts its loop and moves it to the ready state.
// Close releases the loop.
func New(opts ...Option) (*Session, error) {
	cfg := config{
		wallMode:     WallModeAssign,
		opsPerSecond: runtime.DefaultOperationsPerSecond,
		width:        runtime.DefaultWidth,
		height:       runtime.DefaultHeight,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}
	if cfg.renderer == nil {
		cfg.renderer = stream.NewPublisher(stream.WithLogger(cfg.logger))
	}
	if cfg.finder == nil {
		cfg.finder = finder.NewAStar()
	}
	if cfg.layout != nil {
		if err := cfg.layout.Validate(); err != nil {
			return nil, fmt.Errorf("invalid layout: %w", err)
		}
	} else if err := domain.CheckGridSize(cfg.width, cfg.height); err != nil {
		return nil, err
	}
	if cfg.prompt == nil {
		cfg.prompt, _ = cfg.renderer.(ports.EndpointPrompt)
	}

	logger := cfg.logger.With("session", cfg.id)
	s := &Session{
		ID:       cfg.id,
		renderer: cfg.renderer,
		logger:   logger,
		state:    domain.StateNone,
		changed:  make(chan struct{}),
		cfg:      cfg,
	}
	s.loop = runtime.NewLoop(cfg.clock, runtime.WithLoopLogger(logger))

	tracker := domain.LifecycleHooks{OnTransition: s.track}
	ctrlOpts := []runtime.Option{
		runtime.WithClock(s.loop),
		runtime.WithLogger(logger),
		runtime.WithLifecycleHooks(tracker.Merge(cfg.hooks)),
		runtime.WithOperationsPerSecond(cfg.opsPerSecond),
		runtime.WithGridSize(cfg.width, cfg.height),
	}
	if cfg.layout != nil {
		ctrlOpts = append(ctrlOpts, runtime.WithLayout(cfg.layout))
	}
	s.ctrl = runtime.NewController(cfg.finder, cfg.renderer, ctrlOpts...)

	dispOpts := []runtime.DispatcherOption{
		runtime.WithWallMode(cfg.wallMode),
		runtime.WithDispatcherLogger(logger),
	}
	if cfg.prompt != nil {
		dispOpts = append(dispOpts, runtime.WithPrompt(&loopPrompt{inner: cfg.prompt, loop: s.loop}))
	}
	s.disp = runtime.NewDispatcher(s.ctrl, dispOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		_ = s.loop.Run(ctx)
	}()

	if err := s.loop.Do(ctx, s.ctrl.Init); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// track runs on the loop after every transition.
func (s *Session) track(e *domain.TransitionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = e.To
	close(s.changed)
	s.changed = make(chan struct{})
}

// State returns the state after the most recent transition.
func (s *Session) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until the session is in one of states or ctx is done.
func (s *Session) Wait(ctx context.Context, states ...domain.State) (domain.State, error) {
	for {
		s.mu.Lock()
		current, changed := s.state, s.changed
		s.mu.Unlock()

		for _, want := range states {
			if current == want {
				return current, nil
			}
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return current, ctx.Err()
		case <-s.loop.Done():
			return current, runtime.ErrLoopClosed
		}
	}
}

// Renderer returns the view the session draws on.
func (s *Session) Renderer() ports.Renderer {
	return s.renderer
}

// Layout returns the layout the session was created from, if any.
func (s *Session) Layout() *domain.Layout {
	return s.cfg.layout
}

// Close stops the session's loop. Pending playback and cleanups are dropped.
func (s *Session) Close() {
	s.cancel()
	<-s.loop.Done()
}

func (s *Session) do(ctx context.Context, f func() error) error {
	return s.loop.Do(ctx, f)
}

// Start validates the endpoints and begins a search.
func (s *Session) Start(ctx context.Context) error { return s.do(ctx, s.ctrl.Start) }

// Pause suspends playback.
func (s *Session) Pause(ctx context.Context) error { return s.do(ctx, s.ctrl.Pause) }

// Resume continues a paused playback.
func (s *Session) Resume(ctx context.Context) error { return s.do(ctx, s.ctrl.Resume) }

// Cancel abandons a paused search.
func (s *Session) Cancel(ctx context.Context) error { return s.do(ctx, s.ctrl.Cancel) }

// Restart clears the current search and starts a new one.
func (s *Session) Restart(ctx context.Context) error { return s.do(ctx, s.ctrl.Restart) }

// Clear removes the footprints of a finished search.
func (s *Session) Clear(ctx context.Context) error { return s.do(ctx, s.ctrl.Clear) }

// Reset rebuilds the grid, dropping every wall.
func (s *Session) Reset(ctx context.Context) error { return s.do(ctx, s.ctrl.Reset) }

// Fire triggers event by name.
func (s *Session) Fire(ctx context.Context, event domain.Event) error {
	return s.do(ctx, func() error { return s.ctrl.Fire(event) })
}

// Can reports whether event is legal in the current state.
func (s *Session) Can(ctx context.Context, event domain.Event) (bool, error) {
	var ok bool
	err := s.do(ctx, func() error {
		ok = s.ctrl.Can(event)
		return nil
	})
	return ok, err
}

// PointerDown forwards a press on cell p to the dispatcher.
func (s *Session) PointerDown(ctx context.Context, p domain.Point) error {
	return s.do(ctx, func() error {
		s.disp.PointerDown(p)
		return nil
	})
}

// PointerMove forwards the pointer entering cell p.
func (s *Session) PointerMove(ctx context.Context, p domain.Point) error {
	return s.do(ctx, func() error {
		s.disp.PointerMove(p)
		return nil
	})
}

// PointerUp forwards a release.
func (s *Session) PointerUp(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.disp.PointerUp()
		return nil
	})
}

// SetStart moves the start node.
func (s *Session) SetStart(ctx context.Context, p domain.Point) error {
	return s.do(ctx, func() error { return s.ctrl.SetStart(p) })
}

// SetEnd moves the end node.
func (s *Session) SetEnd(ctx context.Context, p domain.Point) error {
	return s.do(ctx, func() error { return s.ctrl.SetEnd(p) })
}

// SetEndByName moves the end node to a named location of the layout.
func (s *Session) SetEndByName(ctx context.Context, name string) error {
	return s.do(ctx, func() error { return s.ctrl.SetEndByName(name) })
}

// SetWalkableAt changes a single cell without firing any event.
func (s *Session) SetWalkableAt(ctx context.Context, p domain.Point, walkable bool) error {
	return s.do(ctx, func() error { return s.ctrl.SetWalkableAt(p, walkable) })
}

// SetFinder swaps the algorithm used by the next search.
func (s *Session) SetFinder(ctx context.Context, f ports.Finder) error {
	return s.do(ctx, func() error {
		s.ctrl.SetFinder(f)
		return nil
	})
}

// Snapshot returns a consistent copy of the session's state.
func (s *Session) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.do(ctx, func() error {
		snap = s.ctrl.Snapshot()
		return nil
	})
	return snap, err
}

// Settled tells the session that the view finished animating. It is a no-op
// for renderers that do not report animations.
func (s *Session) Settled() {
	if n, ok := s.renderer.(interface{ Settled() }); ok {
		n.Settled()
	}
}

// Answer resolves the open endpoint prompt of a stream renderer.
func (s *Session) Answer(choice domain.EndpointChoice) error {
	a, ok := s.renderer.(interface {
		Answer(domain.EndpointChoice) bool
	})
	if !ok || !a.Answer(choice) {
		return ErrNoPrompt
	}
	return nil
}

// loopPrompt hands the prompt's answer back to the session's loop, since the
// answer usually arrives on another goroutine.
type loopPrompt struct {
	inner ports.EndpointPrompt
	loop  *runtime.Loop
}

func (p *loopPrompt) PromptEndpoint(pt domain.Point, choose func(domain.EndpointChoice)) {
	p.inner.PromptEndpoint(pt, func(c domain.EndpointChoice) {
		_ = p.loop.Post(func() { choose(c) })
	})
}
