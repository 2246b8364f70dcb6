package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store types
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Cache types
const (
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// Aggregation client settings
	APIBaseURL     string `json:"api_base_url"`
	RequestTimeout int    `json:"request_timeout_seconds"`

	// Store settings
	StoreType       string `json:"store_type"` // "memory" or "postgres"
	DatabaseURL     string `json:"-"`          // Don't expose in JSON
	SnapshotPath    string `json:"snapshot_path"`
	SnapshotBucket  string `json:"snapshot_bucket"`
	SnapshotObject  string `json:"snapshot_object"`
	StorageEndpoint string `json:"storage_endpoint"`

	// Cache settings
	CacheType     string `json:"cache_type"`     // "memory" or "none"
	CacheDuration int    `json:"cache_duration"` // in minutes

	// Snapshot refresh schedule (cron expression, empty disables)
	RefreshSchedule string `json:"refresh_schedule"`

	// Rate limiting
	RateLimitRPS   float64 `json:"rate_limit_rps"`
	RateLimitBurst int     `json:"rate_limit_burst"`

	// Admin endpoints
	AdminToken string `json:"-"` // Don't expose in JSON

	LogLevel string `json:"log_level"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:            getEnvOrDefault("PORT", "8000"),
		Host:            getEnvOrDefault("HOST", "0.0.0.0"),
		APIBaseURL:      strings.TrimRight(getEnvOrDefault("API_BASE_URL", "http://localhost:8000"), "/"),
		RequestTimeout:  getEnvOrDefaultInt("REQUEST_TIMEOUT_SECONDS", 10),
		StoreType:       getEnvOrDefault("STORE_TYPE", StoreMemory),
		DatabaseURL:     getEnvOrDefault("DATABASE_URL", ""),
		SnapshotPath:    getEnvOrDefault("SNAPSHOT_PATH", ""),
		SnapshotBucket:  getEnvOrDefault("SNAPSHOT_BUCKET", ""),
		SnapshotObject:  getEnvOrDefault("SNAPSHOT_OBJECT", "clusters.json"),
		StorageEndpoint: getEnvOrDefault("STORAGE_ENDPOINT", ""),
		CacheType:       getEnvOrDefault("CACHE_TYPE", CacheMemory),
		CacheDuration:   getEnvOrDefaultInt("CACHE_DURATION_MINUTES", 5),
		RefreshSchedule: getEnvOrDefault("REFRESH_SCHEDULE", ""),
		RateLimitRPS:    getEnvOrDefaultFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:  getEnvOrDefaultInt("RATE_LIMIT_BURST", 10),
		AdminToken:      getEnvOrDefault("ADMIN_TOKEN", ""),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return config, config.validate()
}

// LoadClient reads only the settings the dashboard client uses, so server
// settings in the environment cannot break it.
func LoadClient() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		APIBaseURL:     strings.TrimRight(getEnvOrDefault("API_BASE_URL", "http://localhost:8000"), "/"),
		RequestTimeout: getEnvOrDefaultInt("REQUEST_TIMEOUT_SECONDS", 10),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if config.RequestTimeout <= 0 {
		return config, &ConfigError{Field: "REQUEST_TIMEOUT_SECONDS", Message: "must be positive"}
	}
	return config, nil
}

// Timeout returns the aggregation client request timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// CacheTTL returns how long served responses stay cached
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheDuration) * time.Minute
}

// validate checks that configuration values are consistent
func (c *Config) validate() error {
	if c.RequestTimeout <= 0 {
		return &ConfigError{Field: "REQUEST_TIMEOUT_SECONDS", Message: "must be positive"}
	}
	switch c.StoreType {
	case StoreMemory:
		if c.SnapshotPath != "" && c.SnapshotBucket != "" {
			return &ConfigError{Field: "SNAPSHOT_PATH", Message: "cannot be combined with SNAPSHOT_BUCKET"}
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return &ConfigError{Field: "DATABASE_URL", Message: "Database URL is required for postgres store"}
		}
	default:
		return &ConfigError{Field: "STORE_TYPE", Message: "unsupported store type: " + c.StoreType}
	}
	if c.CacheType != CacheMemory && c.CacheType != CacheNone {
		return &ConfigError{Field: "CACHE_TYPE", Message: "unsupported cache type: " + c.CacheType}
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return &ConfigError{Field: "REFRESH_SCHEDULE", Message: err.Error()}
		}
	}
	if c.RateLimitRPS < 0 {
		return &ConfigError{Field: "RATE_LIMIT_RPS", Message: "must not be negative"}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
