package config

import (
	"time"

	"github.com/dmitrijs2005/maunavault/internal/cryptox"
)

// Config holds runtime settings for the MaunaVault CLI.
type Config struct {
	ServerEndpointAddr string
	DatabasePath       string
	RequestTimeout     time.Duration
	// KDFIterations is the PBKDF2 iteration count used for new salts.
	KDFIterations uint32
	// RetryAttempts bounds the rollback retries of a failed password change.
	RetryAttempts int
	RetryBackoff  time.Duration
	LogLevel      string
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:3200"
	c.DatabasePath = "maunavault.db"
	c.RequestTimeout = 15 * time.Second
	c.KDFIterations = cryptox.DefaultPBKDF2Iterations
	c.RetryAttempts = 3
	c.RetryBackoff = 500 * time.Millisecond
	c.LogLevel = "error"
}

// KDF returns the key derivation parameters for new salts.
func (c *Config) KDF() cryptox.KDFParams {
	return cryptox.PBKDF2Params(c.KDFIterations)
}

// Validate rejects settings the vault cannot run with.
func (c *Config) Validate() error {
	return c.KDF().Validate()
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// MAUNA_* environment variables, then flags. Later sources win.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
