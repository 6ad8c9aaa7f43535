package throttle

import (
	"errors"
	"time"
)

// Config holds throttle configuration.
type Config struct {
	MaxAttempts    int           `env:"THROTTLE_MAX_ATTEMPTS" envDefault:"4"`
	BlockDuration  time.Duration `env:"THROTTLE_BLOCK_DURATION" envDefault:"15m"`
	Window         time.Duration `env:"THROTTLE_WINDOW" envDefault:"15m"`
	MaxEntries     int           `env:"THROTTLE_MAX_ENTRIES" envDefault:"10000"`
	RecentActivity time.Duration `env:"THROTTLE_RECENT_ACTIVITY" envDefault:"1m"`
}

// DefaultConfig returns default throttle configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    4,
		BlockDuration:  15 * time.Minute,
		Window:         15 * time.Minute,
		MaxEntries:     10000,
		RecentActivity: time.Minute,
	}
}

// Validate checks that every limit is positive.
func (c Config) Validate() error {
	switch {
	case c.MaxAttempts < 1:
		return errors.Join(ErrInvalidConfig, errors.New("max attempts must be at least 1"))
	case c.BlockDuration <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("block duration must be positive"))
	case c.Window <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("window must be positive"))
	case c.MaxEntries < 1:
		return errors.Join(ErrInvalidConfig, errors.New("max entries must be at least 1"))
	case c.RecentActivity <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("recent activity must be positive"))
	}
	return nil
}
