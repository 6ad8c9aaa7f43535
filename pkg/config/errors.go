package config

import (
	"errors"
	"io/fs"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrLoadingEnvFile is returned when a .env file cannot be read.
	ErrLoadingEnvFile = errors.New("failed to load env file")
)

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
