// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything cmd/api needs to wire the service.
type Config struct {
	HTTPAddr string
	GRPCAddr string

	// PGDSN selects the Postgres store; when empty the service runs fully
	// in-memory (dev mode).
	PGDSN string

	// AuthSecret signs tokens. There is exactly one secret and it has no
	// default: token issuance refuses to start without it.
	AuthSecret string
	AuthIssuer string
	TokenTTL   time.Duration

	RateLimitPerSecond int
	RateLimitBurst     int
	MaxBodyBytes       int64
}

// Load reads configuration from the environment with development defaults
// for everything except the signing secret.
func Load() Config {
	return Config{
		HTTPAddr:           getenv("GRADEBOOK_HTTP_ADDR", ":8080"),
		GRPCAddr:           getenv("GRADEBOOK_GRPC_ADDR", ":9090"),
		PGDSN:              os.Getenv("GRADEBOOK_PG_DSN"),
		AuthSecret:         os.Getenv("GRADEBOOK_AUTH_SECRET"),
		AuthIssuer:         getenv("GRADEBOOK_AUTH_ISSUER", "gradebook"),
		TokenTTL:           getenvDuration("GRADEBOOK_TOKEN_TTL", 24*time.Hour),
		RateLimitPerSecond: getenvInt("GRADEBOOK_RATE_LIMIT_RPS", 50),
		RateLimitBurst:     getenvInt("GRADEBOOK_RATE_LIMIT_BURST", 100),
		MaxBodyBytes:       int64(getenvInt("GRADEBOOK_MAX_BODY_BYTES", 1<<20)),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
