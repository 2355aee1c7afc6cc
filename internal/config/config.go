package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port    int
	DevMode bool

	// CACHE binding: path to the SQLite-backed KV cache store
	CachePath string

	// Upstream market-data provider
	UpstreamBaseURL string
	UpstreamAPIKey  string // UPSTREAM_API_KEY secret

	// FX provider
	FxBaseURL string

	// Logging
	LogLevel string

	// Simulation defaults
	DefaultBootstrapIterations int
	MaxBootstrapIterations     int
	ShardTimeoutSeconds        int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                       getEnvAsInt("GO_PORT", 8001),
		DevMode:                    getEnvAsBool("DEV_MODE", false),
		CachePath:                  getEnv("CACHE", "./data/cache.db"),
		UpstreamBaseURL:            getEnv("UPSTREAM_BASE_URL", "https://query1.finance.yahoo.com"),
		UpstreamAPIKey:             getEnv("UPSTREAM_API_KEY", ""),
		FxBaseURL:                  getEnv("FX_BASE_URL", "https://api.exchangerate-api.com/v4/latest"),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		DefaultBootstrapIterations: getEnvAsInt("BOOTSTRAP_ITERATIONS", 1000),
		MaxBootstrapIterations:     getEnvAsInt("BOOTSTRAP_ITERATIONS_MAX", 2000),
		ShardTimeoutSeconds:        getEnvAsInt("SHARD_TIMEOUT_SECONDS", 30),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.CachePath == "" {
		return fmt.Errorf("CACHE is required")
	}

	// UPSTREAM_API_KEY is optional: only required by upstream providers that
	// gate access behind a key. The default Yahoo-style chart endpoint does not.

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
