package capbit

import "github.com/cuemby/capbit/internal/capbitconfig"

// Config holds the options recognized by Open (spec §6): Path is the
// backing store's filesystem path, MaxSize hints its initial size, and
// MapSync selects the durability/throughput tradeoff.
type Config = capbitconfig.Config

// Option configures a Config passed to Open.
type Option = capbitconfig.Option

// WithMaxSize sets the store size hint.
func WithMaxSize(n int64) Option { return capbitconfig.WithMaxSize(n) }

// WithMapSync selects whether writes fsync on every commit.
func WithMapSync(sync bool) Option { return capbitconfig.WithMapSync(sync) }
