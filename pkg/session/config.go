package session

import (
	"errors"
	"time"
)

// Config holds registry configuration.
type Config struct {
	// InactivityTimeout is the single staleness threshold shared by touch,
	// takeover, sweep and startup recovery.
	InactivityTimeout time.Duration `env:"SESSION_INACTIVITY_TIMEOUT" envDefault:"30m"`

	// TakeoverGrace is how long another device may stay idle before a login
	// from a different device evicts it.
	TakeoverGrace time.Duration `env:"SESSION_TAKEOVER_GRACE" envDefault:"45s"`

	// RecentActivityWindow is the bar for IsUserActiveElsewhere.
	RecentActivityWindow time.Duration `env:"SESSION_RECENT_ACTIVITY_WINDOW" envDefault:"15m"`

	// StoreDriver selects the durable mirror: file, redis, mongo, postgres or memory.
	StoreDriver string `env:"SESSION_STORE_DRIVER" envDefault:"file"`

	// StoreDir is the directory used by the file driver.
	StoreDir string `env:"SESSION_STORE_DIR" envDefault:"./data/sessions"`
}

// DefaultConfig returns default registry configuration.
func DefaultConfig() Config {
	return Config{
		InactivityTimeout:    30 * time.Minute,
		TakeoverGrace:        45 * time.Second,
		RecentActivityWindow: 15 * time.Minute,
		StoreDriver:          "file",
		StoreDir:             "./data/sessions",
	}
}

// Validate checks that all durations are positive, that the takeover grace is
// shorter than the inactivity timeout and that the recent activity window does
// not exceed it.
func (c Config) Validate() error {
	if c.InactivityTimeout <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("inactivity timeout must be positive"))
	}
	if c.TakeoverGrace <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("takeover grace must be positive"))
	}
	if c.RecentActivityWindow <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("recent activity window must be positive"))
	}
	if c.TakeoverGrace >= c.InactivityTimeout {
		return errors.Join(ErrInvalidConfig, errors.New("takeover grace must be shorter than the inactivity timeout"))
	}
	if c.RecentActivityWindow > c.InactivityTimeout {
		return errors.Join(ErrInvalidConfig, errors.New("recent activity window must not exceed the inactivity timeout"))
	}
	return nil
}
