// Package capbitconfig loads and holds the options recognized at engine init.
package capbitconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the options recognized at init, per the library API's
// {path, max_size, map_sync} configuration surface.
type Config struct {
	// Path is the filesystem path to the backing store file.
	Path string `yaml:"path"`

	// MaxSize hints the store's initial mmap size in bytes. Zero means let
	// the store pick its own default.
	MaxSize int64 `yaml:"max_size"`

	// MapSync selects the durability mode: true fsyncs every committed write
	// transaction, false allows the OS to batch writes for throughput at the
	// cost of durability across a crash.
	MapSync bool `yaml:"map_sync"`
}

// Option mutates a Config during programmatic construction.
type Option func(*Config)

// WithPath sets the backing store path.
func WithPath(path string) Option {
	return func(c *Config) { c.Path = path }
}

// WithMaxSize sets the store size hint.
func WithMaxSize(n int64) Option {
	return func(c *Config) { c.MaxSize = n }
}

// WithMapSync selects the durability mode.
func WithMapSync(sync bool) Option {
	return func(c *Config) { c.MapSync = sync }
}

// New builds a Config from functional options, starting from defaults.
func New(path string, opts ...Option) Config {
	cfg := Config{Path: path, MapSync: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Load reads a Config from a YAML file on disk.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("capbitconfig: read %s: %w", path, err)
	}
	cfg.MapSync = true
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("capbitconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}
