package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dyluth/roster/internal/instance"
	"github.com/dyluth/roster/internal/platform/logger"
)

// Config is the process configuration, read from ROSTER_* environment
// variables. CLI flags override individual fields after loading.
type Config struct {
	Addr           string        `env:"ROSTER_ADDR" envDefault:":8080"`
	RedisURL       string        `env:"ROSTER_REDIS_URL"`
	Instance       string        `env:"ROSTER_INSTANCE" envDefault:"default"`
	LogLevel       string        `env:"ROSTER_LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"ROSTER_LOG_FORMAT" envDefault:"text"`
	SchemaFile     string        `env:"ROSTER_SCHEMA_FILE"`
	LabelsFile     string        `env:"ROSTER_LABELS_FILE"`
	ExposeRaw      bool          `env:"ROSTER_EXPOSE_RAW" envDefault:"false"`
	RequestTimeout time.Duration `env:"ROSTER_REQUEST_TIMEOUT" envDefault:"5s"`
}

// FromEnv parses the environment into a Config. It does not validate, so
// that flags can be applied first.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate performs strict validation on the configuration and fills
// defaults that depend on the runtime environment.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("listen address is required")
	}

	if err := instance.ValidateName(c.Instance); err != nil {
		return err
	}

	if c.RedisURL == "" {
		c.RedisURL = instance.DefaultRedisURL()
	} else if !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		return fmt.Errorf("invalid redis url %q: must start with redis:// or rediss://", c.RedisURL)
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case logger.FormatText, logger.FormatJSON:
	default:
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", c.LogFormat)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}

	return nil
}
