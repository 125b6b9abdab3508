package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

var (
	// ErrLockAcquire is returned when Redis fails while taking a lock.
	ErrLockAcquire = errors.New("failed to acquire distributed lock")
	// ErrLockLost is returned on release when the lease had already expired.
	ErrLockLost = errors.New("distributed lock lease expired before release")
)

// release deletes the key only while it still holds the caller's token.
var release = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker serializes layout writes across wayfinder replicas.
type Locker struct {
	client *backend.Client
	prefix string
	poll   time.Duration
}

var _ ports.DistributedLocker = (*Locker)(nil)

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithPollInterval sets how often a contended lock is retried.
func WithPollInterval(d time.Duration) LockerOption {
	return func(l *Locker) {
		if d > 0 {
			l.poll = d
		}
	}
}

// NewLocker creates a locker whose keys live under prefix + "lock:".
func NewLocker(client *backend.Client, prefix string, opts ...LockerOption) *Locker {
	l := &Locker{
		client: client,
		prefix: prefix,
		poll:   100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Locker) key(name string) string {
	return l.prefix + "lock:" + name
}

// Lock takes the lease for a layout name, retrying until it is free or ctx ends.
// Each acquisition gets its own token, so a holder whose lease ran out cannot
// release a later holder.
func (l *Locker) Lock(ctx context.Context, name string, ttl time.Duration) (ports.UnlockFunc, error) {
	key := l.key(name)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLockAcquire, name, err)
		}
		if ok {
			return l.unlocker(key, token), nil
		}

		t := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (l *Locker) unlocker(key, token string) ports.UnlockFunc {
	return func(ctx context.Context) error {
		n, err := release.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrLockLost, key)
		}
		return nil
	}
}
