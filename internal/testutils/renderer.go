package testutils

import (
	"sync"
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
)

// RecordingRenderer is a ports.Renderer that remembers every call.
type RecordingRenderer struct {
	mu sync.Mutex

	Supported []domain.Attribute
	Duration  time.Duration

	Attrs        []domain.Operation
	Paths        []domain.Path
	Stats        []domain.Stats
	Starts       []domain.Point
	Ends         []domain.Point
	Controls     [][]domain.Control
	Footprints   int
	PathClears   int
	BlockedClear int
}

var (
	_ ports.Renderer     = (*RecordingRenderer)(nil)
	_ ports.ControlPanel = (*RecordingRenderer)(nil)
)

// NewRecordingRenderer supports opened and closed, like the default web view.
func NewRecordingRenderer() *RecordingRenderer {
	return &RecordingRenderer{
		Supported: []domain.Attribute{domain.AttrOpened, domain.AttrClosed},
		Duration:  100 * time.Millisecond,
	}
}

func (r *RecordingRenderer) SetAttributeAt(x, y int, attr domain.Attribute, value bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Attrs = append(r.Attrs, domain.Operation{X: x, Y: y, Attr: attr, Value: value})
}

func (r *RecordingRenderer) SetStartPos(p domain.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Starts = append(r.Starts, p)
}

func (r *RecordingRenderer) SetEndPos(p domain.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Ends = append(r.Ends, p)
}

func (r *RecordingRenderer) DrawPath(path domain.Path) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Paths = append(r.Paths, path)
}

func (r *RecordingRenderer) ShowStats(stats domain.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stats = append(r.Stats, stats)
}

func (r *RecordingRenderer) ClearFootprints() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Footprints++
}

func (r *RecordingRenderer) ClearPath() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PathClears++
}

func (r *RecordingRenderer) ClearBlockedNodes() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BlockedClear++
}

func (r *RecordingRenderer) SupportedOperations() []domain.Attribute {
	return r.Supported
}

func (r *RecordingRenderer) AnimationDuration() time.Duration {
	return r.Duration
}

func (r *RecordingRenderer) SetControls(controls []domain.Control) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Controls = append(r.Controls, controls)
}

// Exploration returns the rendered exploration operations, ignoring walkability writes.
func (r *RecordingRenderer) Exploration() []domain.Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Operation
	for _, op := range r.Attrs {
		if op.Attr.IsExploration() {
			out = append(out, op)
		}
	}
	return out
}

// NotifyingRenderer adds an explicit animation completion signal to RecordingRenderer.
// Waiters are released by Settle.
type NotifyingRenderer struct {
	*RecordingRenderer
	waiters []func()
}

var _ ports.AnimationNotifier = (*NotifyingRenderer)(nil)

func NewNotifyingRenderer() *NotifyingRenderer {
	return &NotifyingRenderer{RecordingRenderer: NewRecordingRenderer()}
}

func (r *NotifyingRenderer) AwaitAnimations(done func()) {
	r.waiters = append(r.waiters, done)
}

// Settle reports every pending animation as complete.
func (r *NotifyingRenderer) Settle() {
	waiters := r.waiters
	r.waiters = nil
	for _, w := range waiters {
		w()
	}
}

// Prompter is a ports.EndpointPrompt that holds the last request until answered.
type Prompter struct {
	Asked  []domain.Point
	choose func(domain.EndpointChoice)
}

var _ ports.EndpointPrompt = (*Prompter)(nil)

func (p *Prompter) PromptEndpoint(at domain.Point, choose func(domain.EndpointChoice)) {
	p.Asked = append(p.Asked, at)
	p.choose = choose
}

// Answer delivers a choice to the pending prompt, if any.
func (p *Prompter) Answer(c domain.EndpointChoice) {
	if p.choose == nil {
		return
	}
	choose := p.choose
	p.choose = nil
	choose(c)
}
