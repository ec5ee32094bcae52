// Package config holds the compile-time chat policies and the environment
// driven runtime settings.
package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// Rate limiting
	MessagePerMinuteLimit  = 10
	MessagePerMinuteWindow = time.Minute
	MessagePerHourLimit    = 100
	MessagePerHourWindow   = time.Hour
	APIPerMinuteLimit      = 100
	APIPerMinuteWindow     = time.Minute
	StrictPerMinuteLimit   = 10
	StrictPerMinuteWindow  = time.Minute
	SweepInterval          = 5 * time.Minute

	// Chat
	MaxMessageLength   = 5000
	DefaultThreadLimit = 50
	DefaultInboxLimit  = 20
)

// Config is the runtime configuration read from the environment.
type Config struct {
	ListenAddr string
	JWTSecret  string
	DevMode    bool

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string

	// RateLimitBackend selects where message-window counters live:
	// "memory" (single instance) or "redis" (shared across instances).
	RateLimitBackend string

	TelegramBotToken string
}

// Load reads the environment. JWT_SECRET is the only hard requirement;
// everything else has a local-development default.
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	cfg := &Config{
		ListenAddr:       envOr("LISTEN_ADDR", ":8080"),
		JWTSecret:        secret,
		DevMode:          os.Getenv("APP_ENV") != "production",
		RedisAddr:        envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RateLimitBackend: envOr("RATE_LIMIT_BACKEND", "memory"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	cfg.DatabaseDSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		envOr("DB_HOST", "localhost"),
		envOr("DB_USER", "user"),
		envOr("DB_PASSWORD", "password"),
		envOr("DB_NAME", "civicchatdb"),
		envOr("DB_PORT", "5432"),
	)

	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
