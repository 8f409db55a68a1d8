// Package config loads service settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"dws-challenge"`
	Port        int    `env:"PORT" envDefault:"8080"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9090"`
	GinMode     string `env:"GIN_MODE" envDefault:"release"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// NATSUrl enables the NATS notification sink when set.
	NATSUrl string `env:"NATS_URL"`
	// JournalPath enables the file notification journal when set.
	JournalPath string `env:"NOTIFICATION_JOURNAL"`
	// NotifyAfterRelease dispatches notifications outside the account locks.
	NotifyAfterRelease bool `env:"NOTIFY_AFTER_RELEASE" envDefault:"false"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Environment  string `env:"ENVIRONMENT" envDefault:"development"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port %d", c.MetricsPort)
	}
	if c.Port == c.MetricsPort {
		return fmt.Errorf("port and metrics port must differ, both are %d", c.Port)
	}
	return nil
}
