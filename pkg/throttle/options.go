package throttle

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Option configures a Throttle.
type Option func(*Throttle)

// WithConfig sets the full configuration.
func WithConfig(cfg Config) Option {
	return func(t *Throttle) {
		t.config = cfg
	}
}

// WithMaxAttempts sets how many failures trigger a block.
func WithMaxAttempts(n int) Option {
	return func(t *Throttle) {
		t.config.MaxAttempts = n
	}
}

// WithBlockDuration sets how long a block lasts.
func WithBlockDuration(d time.Duration) Option {
	return func(t *Throttle) {
		t.config.BlockDuration = d
	}
}

// WithWindow sets the span over which failures are counted.
func WithWindow(d time.Duration) Option {
	return func(t *Throttle) {
		t.config.Window = d
	}
}

// WithMaxEntries sets the ceiling that triggers emergency eviction.
func WithMaxEntries(n int) Option {
	return func(t *Throttle) {
		t.config.MaxEntries = n
	}
}

// WithRecentActivity sets how recent an entry must be to survive emergency eviction.
func WithRecentActivity(d time.Duration) Option {
	return func(t *Throttle) {
		t.config.RecentActivity = d
	}
}

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(t *Throttle) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Throttle) {
		if l != nil {
			t.logger = l
		}
	}
}
