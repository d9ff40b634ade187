// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a development default; production deploys
// override through the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// RedisConfig captures connection settings for the login-session cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Config is the full runtime configuration for the server.
type Config struct {
	Addr            string
	DatabaseURL     string
	Redis           RedisConfig
	JWTSigningKey   string
	JWTIssuer       string
	TokenTTL        time.Duration
	AuditBufferSize int
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
}

// FromEnv reads ATSNET_* environment variables, filling in development
// defaults for anything unset. An empty ATSNET_DATABASE_URL or
// ATSNET_REDIS_URL selects the in-memory fallbacks.
func FromEnv() Config {
	cfg := Config{
		Addr:        envOr("ATSNET_ADDR", ":8080"),
		DatabaseURL: os.Getenv("ATSNET_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("ATSNET_REDIS_URL"),
			PoolSize:     envInt("ATSNET_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("ATSNET_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("ATSNET_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("ATSNET_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("ATSNET_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		JWTSigningKey:   envOr("ATSNET_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:       envOr("ATSNET_JWT_ISSUER", "atsnet"),
		TokenTTL:        envDuration("ATSNET_TOKEN_TTL", time.Hour),
		AuditBufferSize: envInt("ATSNET_AUDIT_BUFFER_SIZE", 1024),
		ShutdownTimeout: envDuration("ATSNET_SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        parseLogLevel(os.Getenv("ATSNET_LOG_LEVEL")),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
