package cleanup

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConfig sets the full configuration.
func WithConfig(cfg Config) Option {
	return func(s *Scheduler) {
		s.config = cfg
	}
}

// WithInterval sets the minimum time between sweeps.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.config.Interval = d
	}
}

// WithThrottle adds throttle entries to every sweep.
func WithThrottle(t ThrottleSweeper) Option {
	return func(s *Scheduler) {
		s.throttle = t
	}
}

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
