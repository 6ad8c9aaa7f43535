package config

import (
	"errors"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// LoadEnv reads the given .env files into the process environment without
// overriding variables that are already set. With no paths it reads ./.env
// and ignores a missing file.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !isNotExist(err) {
			return errors.Join(ErrLoadingEnvFile, err)
		}
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Load parses the environment into a new T using env struct tags. The
// default .env file is applied once per process before the first parse.
//
//	type Config struct {
//		Addr    string        `env:"HTTP_ADDR" envDefault:":8080"`
//		Timeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"5s"`
//	}
//
//	cfg, err := config.Load[Config]()
func Load[T any]() (T, error) {
	defaultEnvLoaded.Do(func() {
		_ = LoadEnv()
	})

	cfg, err := env.ParseAs[T]()
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}
