package cleanup

import "errors"

var (
	// ErrInvalidConfig is returned by New for a non-positive interval.
	ErrInvalidConfig = errors.New("cleanup.invalid_config")

	// ErrNoSweeper is returned by New when no session sweeper is given.
	ErrNoSweeper = errors.New("cleanup.no_sweeper")
)
