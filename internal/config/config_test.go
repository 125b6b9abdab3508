package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/wayfinder/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 70, cfg.Grid.Width)
	assert.Equal(t, 100, cfg.Grid.Height)
	assert.Equal(t, 300, cfg.Playback.OperationsPerSecond)
	assert.Equal(t, "astar", cfg.Finder.Algorithm)
	assert.Equal(t, config.StoreMemory, cfg.Store.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := config.Parse([]byte(`
log_level: debug
grid:
  width: 20
playback:
  operations_per_second: "600"
  animation_duration: 150ms
finder:
  algorithm: dijkstra
  diagonal: always
store:
  backend: redis
  redis:
    addr: redis:6379
    ttl: 1h
  cache_ttl: 30s
  redact: ["^vault", "server"]
wall_mode: paint
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20, cfg.Grid.Width)
	assert.Equal(t, 100, cfg.Grid.Height, "unset keys keep defaults")
	assert.Equal(t, 600, cfg.Playback.OperationsPerSecond)
	assert.Equal(t, 150*time.Millisecond, cfg.Playback.AnimationDuration)
	assert.Equal(t, "dijkstra", cfg.Finder.Algorithm)
	assert.Equal(t, "manhattan", cfg.Finder.Heuristic)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "wayfinder:layout:", cfg.Store.Redis.Prefix)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, 30*time.Second, cfg.Store.CacheTTL)
	assert.Equal(t, []string{"^vault", "server"}, cfg.Store.Redact)
	assert.Equal(t, "paint", cfg.WallMode)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "grid: [1, 2"},
		{"unknown key", "grid:\n  depth: 3\n"},
		{"bad type", "grid:\n  width: wide\n"},
		{"negative grid", "grid:\n  width: -1\n"},
		{"oversized grid", "grid:\n  width: 5000\n"},
		{"bad backend", "store:\n  backend: s3\n"},
		{"bad wall mode", "wall_mode: spray\n"},
		{"bad diagonal", "finder:\n  diagonal: sometimes\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wayfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":9090\"\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFinderConfig_Build(t *testing.T) {
	f, err := config.Default().Finder.Build()
	require.NoError(t, err)
	assert.NotNil(t, f)

	_, err = config.FinderConfig{Algorithm: "teleport", Heuristic: "manhattan"}.Build()
	assert.Error(t, err)

	_, err = config.FinderConfig{Algorithm: "astar", Heuristic: "psychic"}.Build()
	assert.Error(t, err)
}
