package runtime

import (
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
)

// Playback drains an OperationLog at a fixed rate.
// It consumes the log it is handed but never appends to it.
type Playback struct {
	clock    ports.Clock
	interval time.Duration
	log      *domain.OperationLog

	supported func(domain.Attribute) bool
	render    func(domain.Operation)
	drained   func()

	timer   ports.Timer
	running bool
	gen     uint64
}

// NewPlayback creates a stopped playback. opsPerSecond below 1 is treated as 1.
func NewPlayback(clock ports.Clock, opsPerSecond int, log *domain.OperationLog,
	supported func(domain.Attribute) bool, render func(domain.Operation), drained func()) *Playback {
	if opsPerSecond < 1 {
		opsPerSecond = 1
	}
	return &Playback{
		clock:     clock,
		interval:  time.Second / time.Duration(opsPerSecond),
		log:       log,
		supported: supported,
		render:    render,
		drained:   drained,
	}
}

// Interval is the delay between two rendered operations.
func (p *Playback) Interval() time.Duration { return p.interval }

// Running reports whether ticks are scheduled.
func (p *Playback) Running() bool { return p.running }

// Start schedules the first step immediately and one step per interval after it.
// Starting a running playback does nothing.
func (p *Playback) Start() {
	if p.running {
		return
	}
	p.running = true
	p.gen++
	p.schedule(0)
}

// Stop cancels pending ticks. Undrained operations stay in the log.
func (p *Playback) Stop() {
	if !p.running {
		return
	}
	p.running = false
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Playback) schedule(d time.Duration) {
	gen := p.gen
	p.timer = p.clock.AfterFunc(d, func() {
		// A tick that was already queued when Stop ran must not render.
		if !p.running || gen != p.gen {
			return
		}
		p.timer = nil
		if p.step() && p.running {
			p.schedule(p.interval)
		}
	})
}

// step renders the next supported operation. It returns false once the log is exhausted.
func (p *Playback) step() bool {
	for {
		op, ok := p.log.Pop()
		if !ok {
			p.running = false
			p.gen++
			if p.drained != nil {
				p.drained()
			}
			return false
		}
		if p.supported != nil && !p.supported(op.Attr) {
			continue
		}
		p.render(op)
		return true
	}
}
