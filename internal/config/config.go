package config

import (
	"os"
	"time"
)

type Config struct {
	Env           string
	Port          string
	DatabaseURL   string
	JWTSecret     string
	JWTExpiration time.Duration
	ClientURL     string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),
		// Empty means the in-memory store; set a postgres URL for
		// persistence.
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", "devsecret"),
		ClientURL:   getEnv("CLIENT_URL", ""),
	}

	// Session tokens live 7 days by default.
	expirationStr := getEnv("JWT_EXPIRATION", "168h")
	expiration, err := time.ParseDuration(expirationStr)
	if err != nil {
		return nil, err
	}
	cfg.JWTExpiration = expiration

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
