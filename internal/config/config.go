package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the atlas service
type Config struct {
	// HTTP
	Port        string
	CORSOrigins []string
	StaticDir   string

	// Dataset source: a local directory, or a base URL when set
	DataDir     string
	DataBaseURL string

	// Loading
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	FetchRetries    int

	// Snapshot history (both optional; Postgres wins when both are set)
	SQLitePath        string
	DatabaseURL       string
	SnapshotRetention int
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// HTTP
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		StaticDir:   getEnv("STATIC_DIR", ""),

		// Dataset source
		DataDir:     getEnv("DATA_DIR", "./data"),
		DataBaseURL: getEnv("DATA_BASE_URL", ""),

		// Loading
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", time.Hour),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchRetries:    getEnvInt("FETCH_RETRIES", 3),

		// Snapshot history
		SQLitePath:        getEnv("SQLITE_DATABASE", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SnapshotRetention: getEnvInt("SNAPSHOT_RETENTION", 50),
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
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s", "1h") or a bare number of seconds.
// "0" disables the periodic refresh.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
