package config

import (
	env "github.com/caarlos0/env/v9"

	"github.com/stockresearch/backend/internal/errors"
)

// Load reads the settings record from the process environment. Any required
// variable that is missing or malformed aborts with an error naming it,
// before any network activity takes place. The application shell calls this
// once; everything downstream receives the resulting *Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.NewPermanentf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Validate performs semantic checks beyond type parsing.
func (c *Config) Validate() error {
	if c.AppEnv == "" {
		return errors.NewPermanentf("APP_ENV must not be empty")
	}

	if err := validatePort("POSTGRES_PORT", c.Postgres.Port); err != nil {
		return err
	}
	if err := validatePort("REDIS_PORT", c.Redis.Port); err != nil {
		return err
	}
	if err := validatePort("API_PORT", c.API.Port); err != nil {
		return err
	}
	if err := validatePort("METRICS_PORT", c.Observability.MetricsPort); err != nil {
		return err
	}
	if err := validatePort("HEALTH_CHECK_PORT", c.Observability.HealthCheckPort); err != nil {
		return err
	}

	if c.Postgres.PoolSize < 1 {
		return errors.NewPermanentf("POSTGRES_POOL_SIZE must be at least 1, got %d", c.Postgres.PoolSize)
	}
	if c.Postgres.MaxOverflow < 0 {
		return errors.NewPermanentf("POSTGRES_MAX_OVERFLOW must not be negative, got %d", c.Postgres.MaxOverflow)
	}
	if c.Postgres.SessionTimeout < 0 {
		return errors.NewPermanentf("POSTGRES_SESSION_TIMEOUT must not be negative, got %s", c.Postgres.SessionTimeout)
	}
	if c.Observability.HealthCheckInterval <= 0 {
		return errors.NewPermanentf("HEALTH_CHECK_INTERVAL must be positive, got %s", c.Observability.HealthCheckInterval)
	}

	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewPermanentf("invalid LOG_LEVEL: %s (must be debug, info, warn, or error)", c.Observability.LogLevel)
	}

	return nil
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return errors.NewPermanentf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}
