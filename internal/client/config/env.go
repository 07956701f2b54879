package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type envConfig struct {
	ServerEndpointAddr string        `env:"MAUNA_SERVER_ADDR"`
	DatabasePath       string        `env:"MAUNA_DB_PATH"`
	RequestTimeout     time.Duration `env:"MAUNA_REQUEST_TIMEOUT"`
	KDFIterations      uint32        `env:"MAUNA_KDF_ITERATIONS"`
	RetryAttempts      int           `env:"MAUNA_RETRY_ATTEMPTS"`
	RetryBackoff       time.Duration `env:"MAUNA_RETRY_BACKOFF"`
	LogLevel           string        `env:"MAUNA_LOG_LEVEL"`
}

func parseEnv(cfg *Config) error {
	var ec envConfig
	if err := cleanenv.ReadEnv(&ec); err != nil {
		return fmt.Errorf("read env: %w", err)
	}

	if ec.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = ec.ServerEndpointAddr
	}
	if ec.DatabasePath != "" {
		cfg.DatabasePath = ec.DatabasePath
	}
	if ec.RequestTimeout != 0 {
		cfg.RequestTimeout = ec.RequestTimeout
	}
	if ec.KDFIterations != 0 {
		cfg.KDFIterations = ec.KDFIterations
	}
	if ec.RetryAttempts != 0 {
		cfg.RetryAttempts = ec.RetryAttempts
	}
	if ec.RetryBackoff != 0 {
		cfg.RetryBackoff = ec.RetryBackoff
	}
	if ec.LogLevel != "" {
		cfg.LogLevel = ec.LogLevel
	}
	return nil
}
