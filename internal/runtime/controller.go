package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/wayfinder/internal/logging"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
)

const (
	// DefaultWidth and DefaultHeight are the grid size used without a layout.
	DefaultWidth  = 70
	DefaultHeight = 100

	// DefaultOperationsPerSecond is the playback rate.
	DefaultOperationsPerSecond = 300

	// cleanupSlack stretches the renderer's animation duration when waiting for it.
	cleanupSlack = 1.2
)

// Controller is the interaction state machine. It owns the grid, the endpoints,
// the operation log and the playback, and must only be called from one goroutine
// (see Loop).
type Controller struct {
	machine  *Machine
	clock    ports.Clock
	renderer ports.Renderer
	finder   ports.Finder
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	now      func() time.Time

	width, height int
	opsPerSecond  int
	layout        *domain.Layout

	state    domain.State
	grid     *domain.Grid
	start    domain.Point
	end      domain.Point
	hasStart bool
	hasEnd   bool
	path     domain.Path
	stats    *domain.Stats
	controls []domain.Control

	log       *domain.OperationLog
	playback  *Playback
	supported map[domain.Attribute]bool

	// gen counts transitions; deferred cleanups compare it to detect a newer session.
	gen     uint64
	cleanup ports.Timer
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the timer source. Use a Loop in production.
func WithClock(clock ports.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithGridSize sets the grid size used when no layout is given.
func WithGridSize(width, height int) Option {
	return func(c *Controller) {
		c.width, c.height = width, height
	}
}

// WithOperationsPerSecond sets the playback rate.
func WithOperationsPerSecond(n int) Option {
	return func(c *Controller) {
		c.opsPerSecond = n
	}
}

// WithLayout sets the initial walls, endpoints and named locations.
// The layout size overrides WithGridSize.
func WithLayout(layout *domain.Layout) Option {
	return func(c *Controller) {
		c.layout = layout
	}
}

// NewController creates a controller in the "none" state. Call Init before use.
func NewController(finder ports.Finder, renderer ports.Renderer, opts ...Option) *Controller {
	c := &Controller{
		machine:      MustMachine(DefaultRules),
		clock:        SystemClock{},
		renderer:     renderer,
		finder:       finder,
		logger:       logging.NewNop(),
		now:          time.Now,
		width:        DefaultWidth,
		height:       DefaultHeight,
		opsPerSecond: DefaultOperationsPerSecond,
		state:        domain.StateNone,
		log:          domain.NewOperationLog(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.layout != nil {
		c.width, c.height = c.layout.Width, c.layout.Height
	}

	c.supported = make(map[domain.Attribute]bool)
	for _, a := range renderer.SupportedOperations() {
		c.supported[a] = true
	}
	c.playback = NewPlayback(c.clock, c.opsPerSecond, c.log,
		func(a domain.Attribute) bool { return c.supported[a] },
		c.renderOperation,
		c.finish,
	)
	return c
}

// State returns the current state.
func (c *Controller) State() domain.State { return c.state }

// Is reports whether the controller is in state s.
func (c *Controller) Is(s domain.State) bool { return c.state == s }

// Can reports whether event is legal in the current state.
func (c *Controller) Can(event domain.Event) bool {
	return c.machine.Can(c.state, event)
}

// Pending returns the number of recorded operations not yet replayed.
func (c *Controller) Pending() int { return c.log.Len() }

// Path returns the path of the last search.
func (c *Controller) Path() domain.Path { return c.path }

// Stats returns the statistics of the last search, or nil before any search.
func (c *Controller) Stats() *domain.Stats { return c.stats }

// Controls returns the actions currently offered to the user.
func (c *Controller) Controls() []domain.Control { return c.controls }

// SetFinder swaps the pathfinding algorithm used by the next search.
func (c *Controller) SetFinder(f ports.Finder) { c.finder = f }

// Init builds the grid from the layout and enters ready.
func (c *Controller) Init() error { return c.fire(domain.EventInit) }

// Start runs a search and begins replaying it.
// It fails with domain.ErrInvalidEndpoints, without changing state, if the
// endpoints are unset, equal or blocked.
func (c *Controller) Start() error {
	if !c.Can(domain.EventStart) {
		return c.illegal(domain.EventStart)
	}
	if err := c.checkEndpoints(); err != nil {
		return err
	}
	return c.fire(domain.EventStart)
}

// Fire triggers event by name. start goes through the endpoint guard;
// drawWall and eraseWall enter their mode without painting a cell.
func (c *Controller) Fire(event domain.Event) error {
	if event == domain.EventStart {
		return c.Start()
	}
	return c.fire(event)
}

func (c *Controller) Pause() error   { return c.fire(domain.EventPause) }
func (c *Controller) Resume() error  { return c.fire(domain.EventResume) }
func (c *Controller) Cancel() error  { return c.fire(domain.EventCancel) }
func (c *Controller) Restart() error { return c.fire(domain.EventRestart) }
func (c *Controller) Clear() error   { return c.fire(domain.EventClear) }
func (c *Controller) Reset() error   { return c.fire(domain.EventReset) }
func (c *Controller) Modify() error  { return c.fire(domain.EventModify) }
func (c *Controller) Rest() error    { return c.fire(domain.EventRest) }

func (c *Controller) DragStart() error { return c.fire(domain.EventDragStart) }
func (c *Controller) DragEnd() error   { return c.fire(domain.EventDragEnd) }

// DrawWall enters drawingWall and blocks p.
func (c *Controller) DrawWall(p domain.Point) error {
	return c.paint(domain.EventDrawWall, p, false)
}

// EraseWall enters erasingWall and unblocks p.
func (c *Controller) EraseWall(p domain.Point) error {
	return c.paint(domain.EventEraseWall, p, true)
}

func (c *Controller) paint(event domain.Event, p domain.Point, walkable bool) error {
	if !c.grid.Contains(p.X, p.Y) {
		return fmt.Errorf("%s at %s: %w", event, p, domain.ErrOutOfBounds)
	}
	if err := c.fire(event); err != nil {
		return err
	}
	return c.setWalkable(p, walkable)
}

// IsWalkableAt reports whether p is inside the grid and walkable.
func (c *Controller) IsWalkableAt(p domain.Point) bool {
	return c.grid != nil && c.grid.IsWalkableAt(p.X, p.Y)
}

// Contains reports whether p is inside the grid.
func (c *Controller) Contains(p domain.Point) bool {
	return c.grid != nil && c.grid.Contains(p.X, p.Y)
}

func (c *Controller) IsStart(p domain.Point) bool { return c.hasStart && c.start == p }
func (c *Controller) IsEnd(p domain.Point) bool   { return c.hasEnd && c.end == p }

// IsEndpoint reports whether p is the start or the end marker.
func (c *Controller) IsEndpoint(p domain.Point) bool {
	return c.IsStart(p) || c.IsEnd(p)
}

// SetStart moves the start marker. It does not check walkability; the caller keeps
// the endpoints valid. Moving an endpoint while finished marks the result as modified.
func (c *Controller) SetStart(p domain.Point) error {
	if err := c.checkBounds(p); err != nil {
		return err
	}
	c.start, c.hasStart = p, true
	c.renderer.SetStartPos(p)
	return c.markModified()
}

// SetEnd moves the end marker; see SetStart.
func (c *Controller) SetEnd(p domain.Point) error {
	if err := c.checkBounds(p); err != nil {
		return err
	}
	c.end, c.hasEnd = p, true
	c.renderer.SetEndPos(p)
	return c.markModified()
}

// SetEndByName moves the end marker to a named location of the layout.
func (c *Controller) SetEndByName(name string) error {
	if c.layout == nil {
		return fmt.Errorf("%w: %q (no layout loaded)", domain.ErrUnknownLocation, name)
	}
	p, err := c.layout.Lookup(name)
	if err != nil {
		return err
	}
	return c.SetEnd(p)
}

// SetWalkableAt changes the walkability of p.
func (c *Controller) SetWalkableAt(p domain.Point, walkable bool) error {
	if err := c.setWalkable(p, walkable); err != nil {
		return err
	}
	return c.markModified()
}

func (c *Controller) setWalkable(p domain.Point, walkable bool) error {
	if c.grid == nil {
		return fmt.Errorf("set walkable at %s: %w", p, domain.ErrOutOfBounds)
	}
	if err := c.grid.SetWalkableAt(p.X, p.Y, walkable); err != nil {
		return err
	}
	c.renderer.SetAttributeAt(p.X, p.Y, domain.AttrWalkable, walkable)
	return nil
}

func (c *Controller) markModified() error {
	if c.state == domain.StateFinished {
		return c.fire(domain.EventModify)
	}
	return nil
}

// Snapshot returns a read-only view of the controller.
func (c *Controller) Snapshot() domain.Snapshot {
	s := domain.Snapshot{
		State:    c.state,
		Width:    c.width,
		Height:   c.height,
		Path:     append(domain.Path(nil), c.path...),
		Pending:  c.log.Len(),
		Controls: append([]domain.Control(nil), c.controls...),
	}
	if c.grid != nil {
		s.Walls = c.grid.Walls()
	}
	if c.hasStart {
		p := c.start
		s.Start = &p
	}
	if c.hasEnd {
		p := c.end
		s.End = &p
	}
	if c.stats != nil {
		st := *c.stats
		s.Stats = &st
	}
	return s
}

// Layout returns the layout the controller was built from, if any.
func (c *Controller) Layout() *domain.Layout { return c.layout }

func (c *Controller) checkBounds(p domain.Point) error {
	if p.X < 0 || p.X >= c.width || p.Y < 0 || p.Y >= c.height {
		return fmt.Errorf("%w: %s outside %dx%d", domain.ErrOutOfBounds, p, c.width, c.height)
	}
	return nil
}

func (c *Controller) checkEndpoints() error {
	switch {
	case !c.hasStart || !c.hasEnd:
		return fmt.Errorf("%w: start or end is unset", domain.ErrInvalidEndpoints)
	case c.start == c.end:
		return fmt.Errorf("%w: start and end are both %s", domain.ErrInvalidEndpoints, c.start)
	case !c.IsWalkableAt(c.start):
		return fmt.Errorf("%w: start %s is blocked", domain.ErrInvalidEndpoints, c.start)
	case !c.IsWalkableAt(c.end):
		return fmt.Errorf("%w: end %s is blocked", domain.ErrInvalidEndpoints, c.end)
	}
	return nil
}

func (c *Controller) illegal(event domain.Event) error {
	return fmt.Errorf("%w: %s from %s", domain.ErrIllegalTransition, event, c.state)
}

// fire runs one transition: exit action, state change, hooks, entry action.
// An illegal event returns ErrIllegalTransition and has no side effects.
func (c *Controller) fire(event domain.Event) error {
	from := c.state
	to, ok := c.machine.Next(from, event)
	if !ok {
		return c.illegal(event)
	}

	c.leave(from, event)
	c.state = to
	c.gen++

	c.logger.Debug("transition", "from", from, "to", to, "event", event)
	if c.hooks.OnTransition != nil {
		c.hooks.OnTransition(&domain.TransitionEvent{
			EventBase: domain.EventBase{Timestamp: c.clock.Now(), Type: domain.EventTransition},
			From:      from,
			To:        to,
			Event:     event,
		})
	}
	c.publishControls()

	return c.enter(to, event)
}

func (c *Controller) leave(from domain.State, event domain.Event) {
	switch from {
	case domain.StateNone:
		c.buildGrid()
	case domain.StateSearching:
		c.playback.Stop()
	}
}

func (c *Controller) enter(to domain.State, event domain.Event) error {
	switch to {
	case domain.StateReady:
		c.log.Clear()
		switch event {
		case domain.EventCancel, domain.EventClear:
			c.clearFootprints()
		case domain.EventReset:
			c.deferCleanup(func() {
				c.log.Clear()
				c.clearFootprints()
				c.renderer.ClearBlockedNodes()
				c.grid = domain.NewGrid(c.width, c.height)
				c.path, c.stats = nil, nil
			})
		}

	case domain.StateStarting:
		c.search()
		return c.fire(domain.EventSearch)

	case domain.StateSearching:
		c.playback.Start()

	case domain.StateFinished:
		c.playback.Stop()
		if c.stats != nil {
			c.renderer.ShowStats(*c.stats)
		}
		c.renderer.DrawPath(c.path)

	case domain.StateRestarting:
		c.deferCleanup(func() {
			c.log.Clear()
			c.clearFootprints()
			if err := c.Start(); err != nil {
				c.logger.Error("Restart could not start a new search", "err", err)
			}
		})
	}
	return nil
}

// finish is fired by the playback once the log is exhausted.
func (c *Controller) finish() {
	if err := c.fire(domain.EventFinish); err != nil {
		c.logger.Error("Playback drained outside of searching", "err", err)
	}
}

func (c *Controller) renderOperation(op domain.Operation) {
	c.renderer.SetAttributeAt(op.X, op.Y, op.Attr, op.Value)
	if c.hooks.OnRendered != nil {
		c.hooks.OnRendered(&domain.RenderedEvent{
			EventBase: domain.EventBase{Timestamp: c.clock.Now(), Type: domain.EventRendered},
			Operation: op,
		})
	}
}

// search runs the finder synchronously against an instrumented clone of the grid.
func (c *Controller) search() {
	c.clearFootprints()
	c.log.Clear()
	c.path, c.stats = nil, nil

	grid := c.grid.Clone()
	grid.Instrument(c.log)

	began := c.now()
	path := c.runFinder(grid)
	elapsed := c.now().Sub(began)

	grid.Instrument(nil)
	c.path = path
	c.stats = &domain.Stats{
		PathLength:     path.Length(),
		TimeSpent:      elapsed,
		OperationCount: c.log.Len(),
	}

	c.logger.Info("Search completed",
		"start", c.start.String(),
		"end", c.end.String(),
		"found", len(path) > 0,
		"operations", c.stats.OperationCount,
		"elapsed", elapsed,
	)
	if c.hooks.OnSearch != nil {
		c.hooks.OnSearch(&domain.SearchEvent{
			EventBase: domain.EventBase{Timestamp: c.clock.Now(), Type: domain.EventSearchDone},
			Start:     c.start,
			End:       c.end,
			Found:     len(path) > 0,
			Stats:     *c.stats,
		})
	}
}

func (c *Controller) runFinder(grid *domain.Grid) (path domain.Path) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Finder panicked, treating as no path", "err", fmt.Errorf("%v", r))
			path = nil
		}
	}()
	return c.finder.FindPath(c.start, c.end, grid)
}

func (c *Controller) clearFootprints() {
	c.renderer.ClearFootprints()
	c.renderer.ClearPath()
}

func (c *Controller) buildGrid() {
	c.grid = domain.NewGrid(c.width, c.height)
	if c.layout == nil {
		return
	}
	for _, w := range c.layout.Walls {
		if err := c.setWalkable(w, false); err != nil {
			c.logger.Warn("Skipping layout wall", "wall", w.String(), "err", err)
		}
	}
	if c.layout.Start != nil {
		c.start, c.hasStart = *c.layout.Start, true
		c.renderer.SetStartPos(c.start)
	}
	if c.layout.End != nil {
		c.end, c.hasEnd = *c.layout.End, true
		c.renderer.SetEndPos(c.end)
	}
}

// deferCleanup runs fn once the renderer's in-flight animations are done: on the
// renderer's explicit signal when it offers one, and otherwise (or at the latest)
// after the animation duration with some slack. If any transition happens in the
// meantime the cleanup is dropped, so it never touches a newer session.
func (c *Controller) deferCleanup(fn func()) {
	if c.cleanup != nil {
		c.cleanup.Stop()
		c.cleanup = nil
	}

	gen, expect := c.gen, c.state
	done := false
	var t ports.Timer
	run := func() {
		if done {
			return
		}
		done = true
		// Only this cleanup's own bound is cancelled; a newer one keeps its timer.
		if t != nil {
			t.Stop()
		}
		if c.cleanup == t {
			c.cleanup = nil
		}
		if c.gen != gen || c.state != expect {
			c.logger.Debug("Dropping stale cleanup", "expected", expect, "state", c.state)
			return
		}
		fn()
	}

	wait := time.Duration(float64(c.renderer.AnimationDuration()) * cleanupSlack)
	t = c.clock.AfterFunc(wait, run)
	c.cleanup = t

	if n, ok := c.renderer.(ports.AnimationNotifier); ok {
		n.AwaitAnimations(func() {
			// hop back onto the controller's thread
			c.clock.AfterFunc(0, run)
		})
	}
}

func (c *Controller) publishControls() {
	controls := controlsFor(c.state)
	if controls == nil {
		return
	}
	c.controls = controls
	if panel, ok := c.renderer.(ports.ControlPanel); ok {
		panel.SetControls(controls)
	}
}

const clearWallsSlot = 3

// controlsFor returns the buttons offered in a resting state, or nil for
// transient states that keep the previous buttons.
func controlsFor(s domain.State) []domain.Control {
	clearWalls := domain.Control{Slot: clearWallsSlot, Label: "Clear Walls", Event: domain.EventReset, Enabled: true}
	switch s {
	case domain.StateReady:
		return []domain.Control{
			{Slot: 1, Label: "Start Search", Event: domain.EventStart, Enabled: true},
			{Slot: 2, Label: "Pause Search", Enabled: false},
			clearWalls,
		}
	case domain.StateSearching:
		return []domain.Control{
			{Slot: 1, Label: "Restart Search", Event: domain.EventRestart, Enabled: true},
			{Slot: 2, Label: "Pause Search", Event: domain.EventPause, Enabled: true},
			clearWalls,
		}
	case domain.StatePaused:
		return []domain.Control{
			{Slot: 1, Label: "Resume Search", Event: domain.EventResume, Enabled: true},
			{Slot: 2, Label: "Cancel Search", Event: domain.EventCancel, Enabled: true},
			clearWalls,
		}
	case domain.StateFinished:
		return []domain.Control{
			{Slot: 1, Label: "Restart Search", Event: domain.EventRestart, Enabled: true},
			{Slot: 2, Label: "Clear Path", Event: domain.EventClear, Enabled: true},
			clearWalls,
		}
	case domain.StateModified:
		return []domain.Control{
			{Slot: 1, Label: "Start Search", Event: domain.EventStart, Enabled: true},
			{Slot: 2, Label: "Clear Path", Event: domain.EventClear, Enabled: true},
			clearWalls,
		}
	}
	return nil
}
