package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/wayfinder/pkg/adapters/redis"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	tests.RunLayoutStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	err := store.Save(ctx, &domain.Layout{Name: "lobby", Width: 3, Height: 3})
	require.NoError(t, err)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "lobby")

	// Expire the key in miniredis.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "lobby")
	assert.ErrorIs(t, err, domain.ErrLayoutNotFound)

	// The index is pruned against the wall clock.
	time.Sleep(1200 * time.Millisecond)

	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := store.Save(ctx, &domain.Layout{Name: "floor-3", Width: 2, Height: 2})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:floor-3"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"floor-3"}, names)
}

func TestRedisStore_RejectsUnnamed(t *testing.T) {
	_, client := newClient(t)
	err := redis.NewFromClient(client).Save(context.Background(), &domain.Layout{Width: 1, Height: 1})
	assert.Error(t, err)
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	mr.Close()

	_, err := store.Load(context.Background(), "lobby")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLayoutNotFound)
}
