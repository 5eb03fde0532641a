package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	apperrors "primekg/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string

	// Data layout
	DataDir      string // directory holding the downloaded tables
	SnapshotPath string // where the binary graph snapshot lives

	// Dataset catalog
	DataverseBaseURL string // catalog host serving the dataset
	DatasetDOI       string // persistent identifier of the dataset
	FetchConcurrency int    // parallel downloads
	FetchTimeout     int    // per-file timeout in seconds, 0 disables

	// Build
	PathProbe bool // run the random gene-to-disease path probe after builds
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		DataDir:          getEnv("DATA_DIR", "data/primekg"),
		SnapshotPath:     getEnv("SNAPSHOT_PATH", "data/primekg_graph.snapshot"),
		DataverseBaseURL: getEnv("DATAVERSE_BASE_URL", "https://dataverse.harvard.edu"),
		DatasetDOI:       getEnv("DATASET_DOI", "10.7910/DVN/IXA7BM"),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 3),
		FetchTimeout:     getEnvInt("FETCH_TIMEOUT", 0),
		PathProbe:        getEnvBool("PATH_PROBE", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Port == "" {
		return apperrors.NewConfigValidationFailed("PORT", "must not be empty")
	}
	if c.DataDir == "" {
		return apperrors.NewConfigValidationFailed("DATA_DIR", "must not be empty")
	}
	if c.SnapshotPath == "" {
		return apperrors.NewConfigValidationFailed("SNAPSHOT_PATH", "must not be empty")
	}
	if c.DataverseBaseURL == "" {
		return apperrors.NewConfigValidationFailed("DATAVERSE_BASE_URL", "must not be empty")
	}
	if c.DatasetDOI == "" {
		return apperrors.NewConfigValidationFailed("DATASET_DOI", "must not be empty")
	}
	if c.FetchConcurrency < 1 {
		return apperrors.NewConfigValidationFailed("FETCH_CONCURRENCY", "must be at least 1")
	}
	if c.FetchTimeout < 0 {
		return apperrors.NewConfigValidationFailed("FETCH_TIMEOUT", "must not be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		var result bool
		if _, err := fmt.Sscanf(value, "%t", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
