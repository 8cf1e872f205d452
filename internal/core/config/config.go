package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	Env               string
	DatabaseURL       string
	JWTSecret         string
	TokenTTL          time.Duration
	LockTimeout       time.Duration
	AllowedOrigins    string
	RedisAddr         string
	WebhookURL        string
	WebhookSecret     string
	OAuthClientID     string
	OAuthClientSecret string
}

// LoadConfig reads .env (if present) and builds the one Config instance the
// whole process uses. Nothing else reads the environment at request time.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on system env variables")
	}

	return &Config{
		Port:              getEnv("PORT", "8000"),
		Env:               getEnv("ENV", "development"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		TokenTTL:          getDuration("TOKEN_TTL", 24*time.Hour),
		LockTimeout:       getDuration("LOCK_TIMEOUT", 3*time.Second),
		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		WebhookURL:        getEnv("WEBHOOK_URL", ""),
		WebhookSecret:     getEnv("WEBHOOK_SECRET", ""),
		OAuthClientID:     getEnv("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
	}
}

// Helper to get env with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	slog.Warn("Invalid duration value, using fallback", "key", key, "value", value)
	return fallback
}
