package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/smarttransit/dashboard/apps/api/models"
)

// Config holds all configuration for the API service
type Config struct {
	// HTTP
	Port        string
	CORSOrigins []string
	StaticDir   string

	// Registries
	DataSource  models.DataSource
	SeedFile    string
	SQLitePath  string
	DatabaseURL string

	// Dashboard behaviour
	SearchLatency   time.Duration
	SessionCapacity int
	SessionTTL      time.Duration

	// Events and metrics
	NATSURL         string
	LogNATSSubjects bool
	MetricsAddr     string
}

// LoadDotEnv loads base then local env files. Local values override base values;
// missing files are ignored.
func LoadDotEnv(base, local string) {
	_ = godotenv.Load(base)
	_ = godotenv.Overload(local)
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StaticDir:   os.Getenv("STATIC_DIR"),

		SeedFile:    os.Getenv("SEED_FILE"),
		SQLitePath:  getEnv("SQLITE_DATABASE", "../../data/dashboard.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		NATSURL:         os.Getenv("NATS_URL"),
		LogNATSSubjects: getEnvBool("LOG_NATS_SUBJECTS"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
	}

	source := models.DataSource(strings.ToLower(getEnv("DATA_SOURCE", string(models.SourceBuiltin))))
	if !validSource(source) {
		return nil, fmt.Errorf("invalid DATA_SOURCE: %q", source)
	}
	cfg.DataSource = source

	ms, err := getEnvInt("SEARCH_LATENCY_MS", 1000)
	if err != nil || ms < 0 {
		return nil, fmt.Errorf("invalid SEARCH_LATENCY_MS: %q", os.Getenv("SEARCH_LATENCY_MS"))
	}
	cfg.SearchLatency = time.Duration(ms) * time.Millisecond

	capacity, err := getEnvInt("SESSION_CAPACITY", 1000)
	if err != nil || capacity <= 0 {
		return nil, fmt.Errorf("invalid SESSION_CAPACITY: %q", os.Getenv("SESSION_CAPACITY"))
	}
	cfg.SessionCapacity = capacity

	minutes, err := getEnvInt("SESSION_TTL_MINUTES", 30)
	if err != nil || minutes < 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL_MINUTES: %q", os.Getenv("SESSION_TTL_MINUTES"))
	}
	cfg.SessionTTL = time.Duration(minutes) * time.Minute

	return cfg, nil
}

func validSource(s models.DataSource) bool {
	for _, known := range models.AllDataSources() {
		if s == known {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(strings.TrimSpace(value))
}

func getEnvBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
