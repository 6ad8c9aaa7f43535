// Package config loads typed configuration from environment variables.
//
// Every package owns a Config struct tagged for github.com/caarlos0/env;
// Load parses one of them, reading ./.env through github.com/joho/godotenv
// first. Variables already present in the environment win over the file.
//
//	cfg, err := config.Load[session.Config]()
package config
