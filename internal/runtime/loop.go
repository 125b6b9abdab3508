package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/wayfinder/internal/logging"
	"github.com/aretw0/wayfinder/pkg/ports"
)

// ErrLoopClosed is returned when work is posted to a loop that has stopped.
var ErrLoopClosed = errors.New("event loop closed")

// SystemClock is the wall clock. Its callbacks run on timer goroutines.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) ports.Timer {
	return time.AfterFunc(d, f)
}

// Loop runs posted callbacks one at a time on a single goroutine.
// It is also a ports.Clock: timer callbacks are posted onto the loop instead of
// running on the timer goroutine, so everything the controller sees happens on
// one logical thread.
type Loop struct {
	inner  ports.Clock
	logger *slog.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool

	wake    chan struct{}
	stopped chan struct{}
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the logger used to report recovered panics.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a loop whose timers come from inner (SystemClock when nil).
func NewLoop(inner ports.Clock, opts ...LoopOption) *Loop {
	if inner == nil {
		inner = SystemClock{}
	}
	l := &Loop{
		inner:   inner,
		logger:  logging.NewNop(),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes posted callbacks until ctx is done. Callbacks still queued at that
// point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()
		close(l.stopped)
	}()

	for {
		for {
			f := l.next()
			if f == nil {
				break
			}
			l.exec(f)
			if ctx.Err() != nil {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.stopped
}

// Post queues f. It never blocks and may be called from any goroutine,
// including from inside a callback.
func (l *Loop) Post(f func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.queue = append(l.queue, f)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Do runs f on the loop and waits for its result.
// It must not be called from inside a loop callback.
func (l *Loop) Do(ctx context.Context, f func() error) error {
	res := make(chan error, 1)
	task := func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in loop callback: %v", r)
			}
			res <- err
		}()
		err = f()
	}
	if err := l.Post(task); err != nil {
		return err
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		// Run may have executed f right before stopping.
		select {
		case err := <-res:
			return err
		default:
			return ErrLoopClosed
		}
	}
}

// Now returns the time of the inner clock.
func (l *Loop) Now() time.Time {
	return l.inner.Now()
}

// AfterFunc schedules f on the inner clock and posts it onto the loop when due.
func (l *Loop) AfterFunc(d time.Duration, f func()) ports.Timer {
	return l.inner.AfterFunc(d, func() {
		_ = l.Post(f)
	})
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	f := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return f
}

func (l *Loop) exec(f func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Recovered panic in loop callback", "err", fmt.Errorf("%v", r))
		}
	}()
	f()
}
