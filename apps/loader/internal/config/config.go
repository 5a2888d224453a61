package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the loader service
type Config struct {
	// Database
	DatabasePath string
	DatabaseURL  string // optional PostgreSQL mirror

	// Seed data
	SeedFile string // empty means the builtin dataset

	// Refresh loop
	PollInterval      time.Duration
	RetentionDuration time.Duration
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// Database
		DatabasePath: getEnv("SQLITE_DATABASE", "../../data/dashboard.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		// Seed data
		SeedFile: getEnv("SEED_FILE", ""),

		// Refresh loop
		PollInterval:      time.Duration(getEnvInt("POLL_INTERVAL", 30)) * time.Second,
		RetentionDuration: time.Duration(getEnvInt("RETENTION_HOURS", 24)) * time.Hour,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}
