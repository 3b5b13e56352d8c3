package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// envConfig mirrors Config in the shape the environment exposes it.
type envConfig struct {
	EndpointAddrHTTP   string   `env:"HTTP_ADDR"`
	EndpointAddrGRPC   string   `env:"GRPC_ADDR"`
	DatabaseDSN        string   `env:"DATABASE_URL"`
	SecretKey          string   `env:"JWT_SECRET_KEY"`
	TokenLifetimeHours int      `env:"JWT_EXPIRATION_HOURS"`
	ServiceName        string   `env:"SERVICE_NAME"`
	RoutePrefix        string   `env:"ROUTE_PREFIX"`
	HashAlgorithm      string   `env:"PASSWORD_HASH_ALGORITHM"`
	BcryptCost         int      `env:"BCRYPT_COST"`
	Environment        string   `env:"APP_ENV"`
	LogLevel           string   `env:"LOG_LEVEL"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// loadDotenv exports the variables of path into the process environment.
// Variables that are already set keep their value, so the real environment
// wins over the file. A missing file is not an error.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays config with the environment variables that are set.
func parseEnv(config *Config) error {
	e := envConfig{
		EndpointAddrHTTP:   config.EndpointAddrHTTP,
		EndpointAddrGRPC:   config.EndpointAddrGRPC,
		DatabaseDSN:        config.DatabaseDSN,
		SecretKey:          config.SecretKey,
		TokenLifetimeHours: int(config.TokenLifetime / time.Hour),
		ServiceName:        config.ServiceName,
		RoutePrefix:        config.RoutePrefix,
		HashAlgorithm:      config.HashAlgorithm,
		BcryptCost:         config.BcryptCost,
		Environment:        config.Environment,
		LogLevel:           config.LogLevel,
		CORSAllowedOrigins: config.CORSAllowedOrigins,
	}

	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	config.EndpointAddrHTTP = e.EndpointAddrHTTP
	config.EndpointAddrGRPC = e.EndpointAddrGRPC
	config.DatabaseDSN = e.DatabaseDSN
	config.SecretKey = e.SecretKey
	config.TokenLifetime = time.Duration(e.TokenLifetimeHours) * time.Hour
	config.ServiceName = e.ServiceName
	config.RoutePrefix = e.RoutePrefix
	config.HashAlgorithm = e.HashAlgorithm
	config.BcryptCost = e.BcryptCost
	config.Environment = e.Environment
	config.LogLevel = e.LogLevel
	config.CORSAllowedOrigins = e.CORSAllowedOrigins

	return nil
}
