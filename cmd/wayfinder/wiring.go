package main

import (
	"context"
	"fmt"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/internal/config"
	"github.com/aretw0/wayfinder/pkg/adapters/file"
	"github.com/aretw0/wayfinder/pkg/adapters/memory"
	"github.com/aretw0/wayfinder/pkg/adapters/redis"
	"github.com/aretw0/wayfinder/pkg/adapters/stream"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/observability"
	"github.com/aretw0/wayfinder/pkg/persistence/middleware"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/aretw0/wayfinder/pkg/session"
)

// backend is the configured layout store plus its optional distributed locker.
type backend struct {
	store  ports.LayoutStore
	locker ports.DistributedLocker
	close  func() error
}

func openBackend(c config.Config) (*backend, error) {
	b := &backend{close: func() error { return nil }}
	switch c.Store.Backend {
	case config.StoreMemory:
		b.store = memory.NewStore()
	case config.StoreFile:
		b.store = file.New(c.Store.Path)
	case config.StoreRedis:
		rc := c.Store.Redis
		s := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		b.store = s
		b.locker = redis.NewLocker(s.Client(), rc.Prefix)
		b.close = s.Close
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	mws := []middleware.Middleware{middleware.NewValidateMiddleware()}
	if len(c.Store.Redact) > 0 {
		redact, err := middleware.NewRedactMiddleware(c.Store.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, redact)
	}
	if c.Store.CacheTTL > 0 {
		mws = append(mws, middleware.NewCacheMiddleware(c.Store.CacheTTL))
	}
	b.store = middleware.Chain(b.store, mws...)
	return b, nil
}

// startupLayout reads the layout file named by the configuration, if any.
func startupLayout(c config.Config) (*domain.Layout, error) {
	if c.Layout == "" {
		return nil, nil
	}
	return file.ReadLayout(c.Layout)
}

// sessionOptions translates the configuration into session options.
func sessionOptions(c config.Config) ([]wayfinder.Option, error) {
	f, err := c.Finder.Build()
	if err != nil {
		return nil, err
	}
	return []wayfinder.Option{
		wayfinder.WithLogger(logger),
		wayfinder.WithFinder(f),
		wayfinder.WithGridSize(c.Grid.Width, c.Grid.Height),
		wayfinder.WithOperationsPerSecond(c.Playback.OperationsPerSecond),
		wayfinder.WithWallMode(wayfinder.WallMode(c.WallMode)),
		wayfinder.WithLifecycleHooks(observability.LoggingHooks(logger)),
	}, nil
}

// newManager builds the session manager shared by the network front ends.
// The configured layout, if any, is saved to the store so sessions can load it by name.
func newManager(ctx context.Context, c config.Config, b *backend, metrics *observability.Metrics) (*session.Manager, error) {
	opts, err := sessionOptions(c)
	if err != nil {
		return nil, err
	}

	mgrOpts := []session.Option{
		session.WithLogger(logger),
		session.WithLocker(b.locker),
		session.WithLockTTL(c.Store.Redis.LockTTL),
		session.WithMaxSessions(c.HTTP.MaxSessions),
		session.WithPublisherOptions(
			stream.WithAnimationDuration(c.Playback.AnimationDuration),
			stream.WithLogger(logger),
		),
	}
	if metrics != nil {
		opts = append(opts, wayfinder.WithLifecycleHooks(metrics.Hooks()))
		mgrOpts = append(mgrOpts, session.WithSessionCount(func(n int) {
			metrics.Sessions.Set(float64(n))
		}))
	}
	mgrOpts = append(mgrOpts, session.WithSessionDefaults(opts...))
	mgr := session.NewManager(b.store, mgrOpts...)

	layout, err := startupLayout(c)
	if err != nil {
		return nil, err
	}
	if layout != nil {
		if err := mgr.SaveLayout(ctx, layout); err != nil {
			return nil, err
		}
		logger.Info("Layout loaded", "name", layout.Name, "path", c.Layout)
	}
	return mgr, nil
}
