// Package terminal draws a visualizer session as a colored grid on an ANSI
// terminal (or as plain characters when colors are unavailable).
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

type cell struct {
	blocked bool
	opened  bool
	closed  bool
	tested  bool
	path    bool
}

// Renderer is a ports.Renderer that repaints the whole grid on every frame.
type Renderer struct {
	mu      sync.Mutex
	out     *termenv.Output
	profile *termenv.Profile

	width, height int
	cells         []cell
	start, end    *domain.Point
	stats         *domain.Stats
	controls      []domain.Control

	cols, rows int
	duration   time.Duration
	frameEvery time.Duration
	lastFrame  time.Time
	now        func() time.Time
	supported  []domain.Attribute
}

var (
	_ ports.Renderer     = (*Renderer)(nil)
	_ ports.ControlPanel = (*Renderer)(nil)
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithProfile forces a color profile (termenv.Ascii disables colors).
func WithProfile(p termenv.Profile) Option {
	return func(r *Renderer) {
		r.profile = &p
	}
}

// WithViewport clips drawing to cols x rows cells.
func WithViewport(cols, rows int) Option {
	return func(r *Renderer) {
		r.cols, r.rows = cols, rows
	}
}

// WithFrameInterval throttles repaints caused by replayed operations.
// Other calls always repaint.
func WithFrameInterval(d time.Duration) Option {
	return func(r *Renderer) {
		r.frameEvery = d
	}
}

// WithAnimationDuration sets the duration the controller waits before cleanups.
func WithAnimationDuration(d time.Duration) Option {
	return func(r *Renderer) {
		r.duration = d
	}
}

// WithTested also draws cells the finder only inspected.
func WithTested() Option {
	return func(r *Renderer) {
		r.supported = append(r.supported, domain.AttrTested)
	}
}

// NewRenderer creates a renderer for a width x height grid writing to w.
func NewRenderer(w io.Writer, width, height int, opts ...Option) *Renderer {
	r := &Renderer{
		width:     width,
		height:    height,
		cells:     make([]cell, width*height),
		cols:      width,
		rows:      height,
		now:       time.Now,
		supported: []domain.Attribute{domain.AttrOpened, domain.AttrClosed},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.profile != nil {
		r.out = termenv.NewOutput(w, termenv.WithProfile(*r.profile))
	} else {
		r.out = termenv.NewOutput(w)
	}
	return r
}

// Viewport reports the cell area of f when it is a terminal. Each cell takes two
// columns and three rows are kept for the status lines.
func Viewport(f *os.File) (cols, rows int, ok bool) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0, 0, false
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		return 0, 0, false
	}
	return w / 2, max(h-3, 1), true
}

func (r *Renderer) at(x, y int) *cell {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return nil
	}
	return &r.cells[y*r.width+x]
}

func (r *Renderer) SetAttributeAt(x, y int, attr domain.Attribute, value bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.at(x, y)
	if c == nil {
		return
	}
	switch attr {
	case domain.AttrWalkable:
		c.blocked = !value
		r.paint()
		return
	case domain.AttrOpened:
		c.opened = value
	case domain.AttrClosed:
		c.closed = value
	case domain.AttrTested:
		c.tested = value
	}
	if r.now().Sub(r.lastFrame) >= r.frameEvery {
		r.paint()
	}
}

func (r *Renderer) SetStartPos(p domain.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = &p
	r.paint()
}

func (r *Renderer) SetEndPos(p domain.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.end = &p
	r.paint()
}

func (r *Renderer) DrawPath(path domain.Path) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range path {
		if c := r.at(p.X, p.Y); c != nil {
			c.path = true
		}
	}
	r.paint()
}

func (r *Renderer) ShowStats(stats domain.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = &stats
	r.paint()
}

func (r *Renderer) ClearFootprints() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cells {
		r.cells[i].opened, r.cells[i].closed, r.cells[i].tested = false, false, false
	}
	r.stats = nil
	r.paint()
}

func (r *Renderer) ClearPath() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cells {
		r.cells[i].path = false
	}
	r.paint()
}

func (r *Renderer) ClearBlockedNodes() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cells {
		r.cells[i].blocked = false
	}
	r.paint()
}

func (r *Renderer) SupportedOperations() []domain.Attribute {
	return r.supported
}

func (r *Renderer) AnimationDuration() time.Duration {
	return r.duration
}

func (r *Renderer) SetControls(controls []domain.Control) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controls = controls
	r.paint()
}

// Flush repaints unconditionally.
func (r *Renderer) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paint()
}

// Frame returns the current grid as text without writing it.
func (r *Renderer) Frame() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame()
}

// paint must be called with mu held.
func (r *Renderer) paint() {
	r.lastFrame = r.now()
	if r.out.Profile != termenv.Ascii {
		r.out.MoveCursor(1, 1)
	}
	fmt.Fprint(r.out, r.frame())
}

var palette = map[string]string{
	"wall":   "#374151",
	"start":  "#22c55e",
	"end":    "#ef4444",
	"path":   "#facc15",
	"closed": "#93c5fd",
	"opened": "#a7f3d0",
	"tested": "#e5e7eb",
}

var glyphs = map[string]string{
	"wall":   "##",
	"start":  "S ",
	"end":    "E ",
	"path":   "* ",
	"closed": "o ",
	"opened": "+ ",
	"tested": ". ",
	"empty":  "  ",
}

func (r *Renderer) kind(x, y int) string {
	p := domain.Point{X: x, Y: y}
	c := r.at(x, y)
	switch {
	case r.start != nil && *r.start == p:
		return "start"
	case r.end != nil && *r.end == p:
		return "end"
	case c.blocked:
		return "wall"
	case c.path:
		return "path"
	case c.closed:
		return "closed"
	case c.opened:
		return "opened"
	case c.tested:
		return "tested"
	}
	return "empty"
}

func (r *Renderer) frame() string {
	var b strings.Builder
	for y := 0; y < min(r.height, r.rows); y++ {
		for x := 0; x < min(r.width, r.cols); x++ {
			k := r.kind(x, y)
			if r.out.Profile == termenv.Ascii || k == "empty" {
				b.WriteString(glyphs[k])
				continue
			}
			b.WriteString(r.out.String(glyphs[k]).Background(r.out.Color(palette[k])).String())
		}
		b.WriteByte('\n')
	}

	if r.stats != nil {
		fmt.Fprintf(&b, "length %.2f  time %s  operations %d\n",
			r.stats.PathLength, r.stats.TimeSpent, r.stats.OperationCount)
	}
	if len(r.controls) > 0 {
		labels := make([]string, 0, len(r.controls))
		for _, c := range r.controls {
			label := fmt.Sprintf("[%d] %s", c.Slot, c.Label)
			if !c.Enabled {
				label += " (off)"
			}
			labels = append(labels, label)
		}
		b.WriteString(strings.Join(labels, "  "))
		b.WriteByte('\n')
	}
	return b.String()
}
