package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port              int    `env:"PORT" envDefault:"8080"`
	DatabaseURL       string `env:"DATABASE_URL,required"`
	RedisURL          string `env:"REDIS_URL,required"`
	IdentityURL       string `env:"IDENTITY_URL,required"`
	IdentityJWTSecret string `env:"IDENTITY_JWT_SECRET,required"`
	IdentityAPIKey    string `env:"IDENTITY_API_KEY"`

	HeartbeatMinIntervalSeconds int `env:"HEARTBEAT_MIN_INTERVAL_SECONDS" envDefault:"5"`
	InactivityThresholdSeconds  int `env:"INACTIVITY_THRESHOLD_SECONDS" envDefault:"25"`
	PresenceSweepSeconds        int `env:"PRESENCE_SWEEP_SECONDS" envDefault:"25"`
	StaleSessionMaxAgeHours     int `env:"STALE_SESSION_MAX_AGE_HOURS" envDefault:"0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) HeartbeatMinInterval() time.Duration {
	return time.Duration(c.HeartbeatMinIntervalSeconds) * time.Second
}

func (c *Config) InactivityThreshold() time.Duration {
	return time.Duration(c.InactivityThresholdSeconds) * time.Second
}

func (c *Config) PresenceSweepInterval() time.Duration {
	return time.Duration(c.PresenceSweepSeconds) * time.Second
}

// StaleSessionMaxAge is the age past which offline rows are pruned by the
// background job. Zero disables automatic pruning (admin-only pruning).
func (c *Config) StaleSessionMaxAge() time.Duration {
	return time.Duration(c.StaleSessionMaxAgeHours) * time.Hour
}

func (c *Config) Validate(isProduction bool) error {
	if c.InactivityThresholdSeconds <= c.HeartbeatMinIntervalSeconds {
		return fmt.Errorf("INACTIVITY_THRESHOLD_SECONDS must exceed HEARTBEAT_MIN_INTERVAL_SECONDS, otherwise every debounced client decays to offline")
	}

	if isProduction {
		if err := validateSecret("IDENTITY_JWT_SECRET", c.IdentityJWTSecret); err != nil {
			return err
		}
		if len(c.RedisURL) >= 8 && c.RedisURL[:8] == "redis://" {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
