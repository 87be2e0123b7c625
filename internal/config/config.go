// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls storage, randomness, content and pacing.
type Config struct {
	DBPath        string        `env:"LIFESIM_DB_PATH"        envDefault:"data/lifesim.db"`
	Seed          int64         `env:"LIFESIM_SEED"` // 0 draws a crypto seed
	ContentPath   string        `env:"LIFESIM_CONTENT"`
	AutosaveYears int           `env:"LIFESIM_AUTOSAVE_YEARS" envDefault:"5"`
	LogLevel      string        `env:"LIFESIM_LOG_LEVEL"      envDefault:"info"`
	Autoplay      bool          `env:"LIFESIM_AUTOPLAY"`
	Pace          time.Duration `env:"LIFESIM_PACE"           envDefault:"0s"`
	RandomOrgKey  string        `env:"RANDOM_ORG_API_KEY"`
	HTTPAddr      string        `env:"LIFESIM_HTTP_ADDR"` // Empty disables the observer API
	Proxies       []string      `env:"LIFESIM_TRUSTED_PROXIES" envSeparator:","` // Peers allowed to set X-Forwarded-For
	AnthropicKey  string        `env:"ANTHROPIC_API_KEY"` // Empty disables eulogies
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.AutosaveYears < 0 {
		return Config{}, fmt.Errorf("LIFESIM_AUTOSAVE_YEARS must not be negative, got %d", cfg.AutosaveYears)
	}
	if cfg.Pace < 0 {
		return Config{}, fmt.Errorf("LIFESIM_PACE must not be negative, got %s", cfg.Pace)
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level maps LogLevel onto a slog level.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
}
