// Package config loads the wayfinder configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/finder"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the full set of runtime settings.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Grid     GridConfig     `mapstructure:"grid"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Finder   FinderConfig   `mapstructure:"finder"`
	Store    StoreConfig    `mapstructure:"store"`
	HTTP     HTTPConfig     `mapstructure:"http"`

	// Layout is a YAML layout file loaded at startup.
	Layout string `mapstructure:"layout"`
	// WallMode is "assign" or "paint".
	WallMode string `mapstructure:"wall_mode"`
}

type GridConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

type PlaybackConfig struct {
	OperationsPerSecond int           `mapstructure:"operations_per_second"`
	AnimationDuration   time.Duration `mapstructure:"animation_duration"`
}

type FinderConfig struct {
	Algorithm string  `mapstructure:"algorithm"`
	Diagonal  string  `mapstructure:"diagonal"`
	Heuristic string  `mapstructure:"heuristic"`
	Weight    float64 `mapstructure:"weight"`
}

type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Path    string      `mapstructure:"path"`
	Redis   RedisConfig `mapstructure:"redis"`
	// CacheTTL keeps loaded layouts in memory. Zero disables the cache.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// Redact lists patterns of location names that are never stored.
	Redact []string `mapstructure:"redact"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type HTTPConfig struct {
	Addr        string `mapstructure:"addr"`
	Metrics     bool   `mapstructure:"metrics"`
	MaxSessions int    `mapstructure:"max_sessions"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Grid:     GridConfig{Width: 70, Height: 100},
		Playback: PlaybackConfig{
			OperationsPerSecond: 300,
			AnimationDuration:   300 * time.Millisecond,
		},
		Finder: FinderConfig{
			Algorithm: "astar",
			Diagonal:  "never",
			Heuristic: "manhattan",
			Weight:    1,
		},
		Store: StoreConfig{
			Backend: StoreMemory,
			Path:    ".wayfinder/layouts",
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Prefix:  "wayfinder:layout:",
				LockTTL: 30 * time.Second,
			},
		},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			Metrics:     true,
			MaxSessions: 64,
		},
		WallMode: "assign",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Keys absent from data keep their defaults;
// scalars are converted where sensible ("250" -> 250, "2s" -> 2s).
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("invalid config yaml: %w", err)
	}
	if raw == nil {
		return cfg, nil
	}

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		Metadata:         &md,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if len(md.Unused) > 0 {
		return Config{}, fmt.Errorf("invalid config: unknown keys %s", strings.Join(md.Unused, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if err := domain.CheckGridSize(c.Grid.Width, c.Grid.Height); err != nil {
		errs = append(errs, fmt.Errorf("grid: %w", err))
	}
	if c.Playback.OperationsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("playback.operations_per_second must be positive"))
	}
	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	switch domain.DiagonalMovement(c.Finder.Diagonal) {
	case domain.DiagonalNever, domain.DiagonalAlways, domain.DiagonalIfAtMostOneObstacle, domain.DiagonalOnlyWhenNoObstacles:
	default:
		errs = append(errs, fmt.Errorf("unknown finder.diagonal %q", c.Finder.Diagonal))
	}
	switch c.WallMode {
	case "assign", "paint":
	default:
		errs = append(errs, fmt.Errorf("unknown wall_mode %q", c.WallMode))
	}
	return errors.Join(errs...)
}

// Build returns the configured finder.
func (f FinderConfig) Build() (ports.Finder, error) {
	h, err := finder.HeuristicByName(f.Heuristic)
	if err != nil {
		return nil, err
	}
	return finder.New(f.Algorithm,
		finder.WithDiagonal(domain.DiagonalMovement(f.Diagonal)),
		finder.WithHeuristic(h),
		finder.WithWeight(f.Weight),
	)
}
