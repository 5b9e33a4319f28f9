package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig

	// HTTP server configuration
	Server ServerConfig

	// Token and invitation lifetimes
	Auth AuthConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// AuthConfig holds credential lifetimes
type AuthConfig struct {
	AccessTokenTTL          time.Duration
	InvitationTTL           time.Duration
	InvitationSweepSchedule string // cron expression or descriptor, e.g. "@hourly"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	tokenMinutes, err := intEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*8)
	if err != nil {
		return nil, err
	}
	invitationHours, err := intEnv("INVITATION_TTL_HOURS", 168)
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: DatabaseConfig{
			URL: stringEnv("DATABASE_URL", "trialdesk.sqlite"),
		},
		Redis: RedisConfig{
			Address: stringEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
		Server: ServerConfig{
			Port:        stringEnv("PORT", "8080"),
			CORSOrigins: splitList(stringEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Auth: AuthConfig{
			AccessTokenTTL:          time.Duration(tokenMinutes) * time.Minute,
			InvitationTTL:           time.Duration(invitationHours) * time.Hour,
			InvitationSweepSchedule: stringEnv("INVITATION_SWEEP_SCHEDULE", "@hourly"),
		},
	}, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
