package cleanup

import (
	"errors"
	"time"
)

// Config holds scheduler configuration.
type Config struct {
	Interval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`
}

// DefaultConfig returns default scheduler configuration.
func DefaultConfig() Config {
	return Config{Interval: 5 * time.Minute}
}

// Validate checks that the interval is positive.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("interval must be positive"))
	}
	return nil
}
