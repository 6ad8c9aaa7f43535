package throttle

import "errors"

// ErrInvalidConfig is returned by New for a non-positive limit.
var ErrInvalidConfig = errors.New("throttle.invalid_config")
