package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config carries everything the CLI needs to reach the backend. Values come
// from GESTION_-prefixed environment variables, with an optional .env file for
// development.
type Config struct {
	// APIURL is the base URL of the Gestion backend.
	APIURL string `env:"API_URL" envDefault:"http://localhost:8000"`

	// CredentialsFile overrides where the token pair is stored. Empty means
	// the user config directory.
	CredentialsFile string `env:"CREDENTIALS_FILE"`

	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `env:"TIMEOUT_SECONDS" envDefault:"30"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "GESTION_"}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Sanitize()
	return &cfg, nil
}

// Sanitize applies guardrails to values loaded from the environment.
func (c *Config) Sanitize() {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.TimeoutSeconds < 1 {
		c.TimeoutSeconds = 30
	}
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Level parses LogLevel, falling back to warn on unknown names.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.WarnLevel
	}
	return lvl
}
