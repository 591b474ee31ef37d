// Package config holds the environment-driven configuration for the adapter
// layer. Values come from environment variables with sane defaults; secrets
// (passwords, API keys) are per-connection and never live here.
package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the tunables shared by all adapters and services.
type Config struct {
	Pool    PoolConfig    `yaml:"pool"`
	History HistoryConfig `yaml:"history"`

	// LogLevel is the zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"DBCORE_LOG_LEVEL" env-default:"info"`
}

// PoolConfig sizes the native connection pools of the relational adapters.
type PoolConfig struct {
	MaxConns       int32         `yaml:"max_conns" env:"DBCORE_POOL_MAX_CONNS" env-default:"20"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"DBCORE_POOL_CONNECT_TIMEOUT" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"DBCORE_POOL_IDLE_TIMEOUT" env-default:"5m"`
}

// HistoryConfig bounds the query service's per-connection history log.
type HistoryConfig struct {
	Limit int `yaml:"limit" env:"DBCORE_HISTORY_LIMIT" env-default:"100"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with all defaults applied, ignoring the
// environment. Used by constructors that receive a nil config.
func Default() *Config {
	return &Config{
		Pool: PoolConfig{
			MaxConns:       20,
			ConnectTimeout: 10 * time.Second,
			IdleTimeout:    5 * time.Minute,
		},
		History: HistoryConfig{Limit: 100},
		LogLevel: "info",
	}
}
