// Package config loads the demo service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

// Config holds the service settings.
type Config struct {
	// DBPath is the sqlite database file holding contexts and rules.
	DBPath string `env:"RULEKIT_DB_PATH" envDefault:"rulekit.db"`
	// ContextID selects an existing context to load. When empty a new
	// context is created.
	ContextID uuid.UUID `env:"RULEKIT_CONTEXT_ID"`
	// RulesetPath is an optional YAML rule file applied to newly created
	// contexts.
	RulesetPath string `env:"RULEKIT_RULESET"`
	// MetricsAddr enables a Prometheus /metrics listener when set.
	MetricsAddr string        `env:"RULEKIT_METRICS_ADDR"`
	Timeout     time.Duration `env:"RULEKIT_TIMEOUT" envDefault:"10s"`
	Debug       bool          `env:"RULEKIT_DEBUG"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db path is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
