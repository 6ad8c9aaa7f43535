package session

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Option is a functional option for configuring the Registry.
type Option func(*Registry)

// WithConfig sets the full configuration.
func WithConfig(cfg Config) Option {
	return func(r *Registry) {
		r.config = cfg
	}
}

// WithInactivityTimeout sets the staleness threshold.
func WithInactivityTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.config.InactivityTimeout = d
	}
}

// WithTakeoverGrace sets how long a session on another device may stay idle
// before a takeover closes it.
func WithTakeoverGrace(d time.Duration) Option {
	return func(r *Registry) {
		r.config.TakeoverGrace = d
	}
}

// WithRecentActivityWindow sets the bar used by IsUserActiveElsewhere.
func WithRecentActivityWindow(d time.Duration) Option {
	return func(r *Registry) {
		r.config.RecentActivityWindow = d
	}
}

// WithClock sets the time source. Tests use a fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}
