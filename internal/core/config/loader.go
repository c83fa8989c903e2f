package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file, falling back to environment
// variables (and their defaults) for anything the file leaves unset. An
// empty path skips the file entirely and resolves from the environment.
func Load(path string) (*AppConfig, error) {
	cfg := fromEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func fromEnv() *AppConfig {
	cfg := &AppConfig{}
	cfg.API.BaseURL = envOr("TB_API_BASE_URL", "http://127.0.0.1:8000")
	cfg.API.APIKey = os.Getenv("TB_API_KEY")
	cfg.API.Provider = envIntOr("TB_API_PROVIDER", 1)

	cfg.Database.Host = envOr("POSTGRES_HOST", "127.0.0.1")
	cfg.Database.Port = envIntOr("POSTGRES_PORT", 5432)
	cfg.Database.User = envOr("POSTGRES_USER", "postgres")
	cfg.Database.Password = envOr("POSTGRES_PASSWORD", "postgres")
	cfg.Database.Database = envOr("POSTGRES_DB", "nx_trade")

	cfg.Redis.URL = os.Getenv("REDIS_URL")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = 10
	}
	if cfg.API.MaxAttempts == 0 {
		cfg.API.MaxAttempts = 3
	}
	if cfg.API.RetryWaitSeconds == 0 {
		cfg.API.RetryWaitSeconds = 2
	}
	if cfg.API.MaxFailures == 0 {
		cfg.API.MaxFailures = 5
	}
	if cfg.API.ResetTimeoutSeconds == 0 {
		cfg.API.ResetTimeoutSeconds = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
