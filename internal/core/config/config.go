package config

import (
	redisclient "github.com/nxtrade/tbutils/internal/infra/redis"
	"github.com/nxtrade/tbutils/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	API      APIConfig          `yaml:"api"`
	Database postgres.Config    `yaml:"database"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// APIConfig holds settings for the TradingBot REST API provider.
type APIConfig struct {
	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	Provider            int    `yaml:"provider"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	MaxAttempts         int    `yaml:"max_attempts"`
	RetryWaitSeconds    int    `yaml:"retry_wait_seconds"`
	MaxFailures         int    `yaml:"max_failures"`
	ResetTimeoutSeconds int    `yaml:"reset_timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
