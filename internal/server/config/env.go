package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type envConfig struct {
	EndpointAddrGRPC             string        `env:"MAUNA_GRPC_ADDR"`
	DatabaseDSN                  string        `env:"MAUNA_DATABASE_DSN"`
	SecretKey                    string        `env:"MAUNA_SECRET_KEY"`
	AccessTokenValidityDuration  time.Duration `env:"MAUNA_ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration time.Duration `env:"MAUNA_REFRESH_TOKEN_TTL"`
	BcryptCost                   int           `env:"MAUNA_BCRYPT_COST"`
	ArchiveEnabled               string        `env:"MAUNA_ARCHIVE_ENABLED"`
	S3RootUser                   string        `env:"MAUNA_S3_USER"`
	S3RootPassword               string        `env:"MAUNA_S3_PASSWORD"`
	S3Bucket                     string        `env:"MAUNA_S3_BUCKET"`
	S3Region                     string        `env:"MAUNA_S3_REGION"`
	S3BaseEndpoint               string        `env:"MAUNA_S3_ENDPOINT"`
	LogBackend                   string        `env:"MAUNA_LOG_BACKEND"`
	LogLevel                     string        `env:"MAUNA_LOG_LEVEL"`
}

func parseEnv(config *Config) error {
	var ec envConfig
	if err := cleanenv.ReadEnv(&ec); err != nil {
		return fmt.Errorf("read env: %w", err)
	}

	setString(&config.EndpointAddrGRPC, ec.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, ec.DatabaseDSN)
	setString(&config.SecretKey, ec.SecretKey)
	if ec.AccessTokenValidityDuration != 0 {
		config.AccessTokenValidityDuration = ec.AccessTokenValidityDuration
	}
	if ec.RefreshTokenValidityDuration != 0 {
		config.RefreshTokenValidityDuration = ec.RefreshTokenValidityDuration
	}
	if ec.BcryptCost != 0 {
		config.BcryptCost = ec.BcryptCost
	}
	if ec.ArchiveEnabled != "" {
		v, err := strconv.ParseBool(ec.ArchiveEnabled)
		if err != nil {
			return fmt.Errorf("MAUNA_ARCHIVE_ENABLED: %w", err)
		}
		config.ArchiveEnabled = v
	}
	setString(&config.S3RootUser, ec.S3RootUser)
	setString(&config.S3RootPassword, ec.S3RootPassword)
	setString(&config.S3Bucket, ec.S3Bucket)
	setString(&config.S3Region, ec.S3Region)
	setString(&config.S3BaseEndpoint, ec.S3BaseEndpoint)
	setString(&config.LogBackend, ec.LogBackend)
	setString(&config.LogLevel, ec.LogLevel)
	return nil
}
