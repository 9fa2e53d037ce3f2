// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	CachePath       string        // SQLite file backing the ticker cache
	CacheTTL        time.Duration // Freshness window for cached classifications
	Workers         int           // Worker count for concurrent batch classification
	ProviderTimeout time.Duration // Per-call deadline for provider lookups
	Port            int
	LogLevel        string
	DevMode         bool

	// Provider base URL overrides (used by tests and self-hosted proxies)
	YahooBaseURL     string
	CoinGeckoBaseURL string

	Backup BackupConfig
}

// BackupConfig holds cache backup settings for S3-compatible storage.
// Backups are disabled unless Bucket is set.
type BackupConfig struct {
	Bucket    string
	Prefix    string
	Endpoint  string // Custom endpoint for S3-compatible providers (R2, MinIO)
	Region    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether cache backups are configured.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cachePath := getEnv("TICKER_CACHE_PATH", "ticker_cache.db")

	// Resolve to an absolute path so the cache lands in a predictable place
	// regardless of working directory. file: URIs are passed through as-is
	// (used for in-memory databases in tests).
	if !strings.HasPrefix(cachePath, "file:") {
		abs, err := filepath.Abs(cachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cache path: %w", err)
		}
		cachePath = abs
	}

	cfg := &Config{
		CachePath:        cachePath,
		CacheTTL:         time.Duration(getEnvAsInt("TICKER_CACHE_TTL_HOURS", 24)) * time.Hour,
		Workers:          getEnvAsInt("CLASSIFIER_WORKERS", 10),
		ProviderTimeout:  time.Duration(getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 10)) * time.Second,
		Port:             getEnvAsInt("PORT", 8080),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		YahooBaseURL:     getEnv("YAHOO_BASE_URL", ""),
		CoinGeckoBaseURL: getEnv("COINGECKO_BASE_URL", ""),
		Backup: BackupConfig{
			Bucket:    getEnv("BACKUP_S3_BUCKET", ""),
			Prefix:    getEnv("BACKUP_S3_PREFIX", "ticker-cache"),
			Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:    getEnv("BACKUP_S3_REGION", "auto"),
			AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.CacheTTL)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Workers)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.ProviderTimeout)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
