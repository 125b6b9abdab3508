// Package stream provides a renderer that turns every draw call into a
// domain.RenderEvent and fans it out to subscribers, for front ends that render
// remotely (SSE clients, MCP agents).
package stream

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/wayfinder/internal/logging"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
)

// Publisher is a ports.Renderer that broadcasts render events.
// Remote clients report finished animations with Settled and answer endpoint
// prompts with Answer.
type Publisher struct {
	mu          sync.Mutex
	subscribers map[chan domain.RenderEvent]struct{}
	seq         uint64
	history     []domain.RenderEvent
	keep        int

	supported []domain.Attribute
	duration  time.Duration
	buffer    int
	logger    *slog.Logger

	waiters []func()
	prompt  func(domain.EndpointChoice)
}

var (
	_ ports.Renderer          = (*Publisher)(nil)
	_ ports.AnimationNotifier = (*Publisher)(nil)
	_ ports.ControlPanel      = (*Publisher)(nil)
	_ ports.EndpointPrompt    = (*Publisher)(nil)
)

// Option configures a Publisher.
type Option func(*Publisher)

// WithSupported sets the exploration attributes the remote view can draw.
func WithSupported(attrs ...domain.Attribute) Option {
	return func(p *Publisher) {
		p.supported = attrs
	}
}

// WithAnimationDuration sets how long the remote view animates a cell.
func WithAnimationDuration(d time.Duration) Option {
	return func(p *Publisher) {
		p.duration = d
	}
}

// WithBuffer sets the per-subscriber channel size. Slow subscribers drop events.
func WithBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = n
		}
	}
}

// WithHistory keeps the last n events so late subscribers can catch up.
func WithHistory(n int) Option {
	return func(p *Publisher) {
		p.keep = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher with no subscribers.
func NewPublisher(opts ...Option) *Publisher {
	p := &Publisher{
		subscribers: make(map[chan domain.RenderEvent]struct{}),
		supported:   []domain.Attribute{domain.AttrOpened, domain.AttrClosed},
		duration:    300 * time.Millisecond,
		buffer:      256,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe returns a channel of events and a function that ends the subscription.
// Retained history, if any, is delivered first.
func (p *Publisher) Subscribe() (<-chan domain.RenderEvent, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan domain.RenderEvent, max(p.buffer, len(p.history)))
	for _, e := range p.history {
		ch <- e
	}
	p.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subscribers[ch]; ok {
				delete(p.subscribers, ch)
				close(ch)
			}
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (p *Publisher) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers)
}

// Close ends every subscription.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subscribers {
		delete(p.subscribers, ch)
		close(ch)
	}
}

func (p *Publisher) publish(e domain.RenderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	e.Seq = p.seq
	if p.keep > 0 {
		p.history = append(p.history, e)
		if len(p.history) > p.keep {
			p.history = p.history[len(p.history)-p.keep:]
		}
	}

	for ch := range p.subscribers {
		select {
		case ch <- e:
		default:
			p.logger.Warn("Render stream subscriber is full, dropping event", "seq", e.Seq, "kind", e.Kind)
		}
	}
}

func (p *Publisher) SetAttributeAt(x, y int, attr domain.Attribute, value bool) {
	op := domain.Operation{X: x, Y: y, Attr: attr, Value: value}
	p.publish(domain.RenderEvent{Kind: domain.RenderAttribute, Operation: &op})
}

func (p *Publisher) SetStartPos(pt domain.Point) {
	p.publish(domain.RenderEvent{Kind: domain.RenderStart, Point: &pt})
}

func (p *Publisher) SetEndPos(pt domain.Point) {
	p.publish(domain.RenderEvent{Kind: domain.RenderEnd, Point: &pt})
}

func (p *Publisher) DrawPath(path domain.Path) {
	p.publish(domain.RenderEvent{Kind: domain.RenderPath, Path: append(domain.Path{}, path...)})
}

func (p *Publisher) ShowStats(stats domain.Stats) {
	p.publish(domain.RenderEvent{Kind: domain.RenderStats, Stats: &stats})
}

func (p *Publisher) ClearFootprints() {
	p.publish(domain.RenderEvent{Kind: domain.RenderClearFootprints})
}

func (p *Publisher) ClearPath() {
	p.publish(domain.RenderEvent{Kind: domain.RenderClearPath})
}

func (p *Publisher) ClearBlockedNodes() {
	p.publish(domain.RenderEvent{Kind: domain.RenderClearBlocked})
}

func (p *Publisher) SupportedOperations() []domain.Attribute {
	return p.supported
}

func (p *Publisher) AnimationDuration() time.Duration {
	return p.duration
}

func (p *Publisher) SetControls(controls []domain.Control) {
	p.publish(domain.RenderEvent{Kind: domain.RenderControls, Controls: controls})
}

// AwaitAnimations registers done to run on the next Settled call.
func (p *Publisher) AwaitAnimations(done func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waiters = append(p.waiters, done)
}

// Settled reports that the remote view has finished every animation.
func (p *Publisher) Settled() {
	p.mu.Lock()
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	for _, w := range waiters {
		w()
	}
}

// PromptEndpoint asks subscribers whether cell pt should become the start or the end.
// A new prompt replaces an unanswered one.
func (p *Publisher) PromptEndpoint(pt domain.Point, choose func(domain.EndpointChoice)) {
	p.mu.Lock()
	p.prompt = choose
	p.mu.Unlock()
	p.publish(domain.RenderEvent{Kind: domain.RenderPrompt, Point: &pt})
}

// Answer resolves the pending prompt. It reports false when nothing was asked.
func (p *Publisher) Answer(choice domain.EndpointChoice) bool {
	p.mu.Lock()
	choose := p.prompt
	p.prompt = nil
	p.mu.Unlock()

	if choose == nil {
		return false
	}
	choose(choice)
	return true
}
