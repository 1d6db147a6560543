package config

import (
	"os"
	"strconv"

	"gosetl/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Analysis AnalysisConfig
	Server   ServerConfig
	Paths    PathConfig
	LogLevel string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	Host    string
	Port    int
	Name    string
	User    string
	SSLMode string
}

// AnalysisConfig holds the statistical run parameters
type AnalysisConfig struct {
	// Alpha is the significance level, in (0,1).
	Alpha float64
	// Repeats is the number of null-model regenerations per run.
	Repeats int
	// Workers bounds concurrent batch jobs.
	Workers int
	// Seed fixes the null-model samplers when non-zero.
	Seed int64
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// PathConfig holds file system paths
type PathConfig struct {
	// ImportFile is an optional xlsx or csv settlement table used
	// instead of the database.
	ImportFile string
	// ExportDir receives generated report and summary files.
	ExportDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			Host:    getEnvOrDefault("DB_HOST", ""),
			Port:    getEnvIntOrDefault("DB_PORT", 5432),
			Name:    getEnvOrDefault("DB_NAME", ""),
			User:    getEnvOrDefault("DB_USER", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Analysis: AnalysisConfig{
			Alpha:   getEnvFloatOrDefault("ALPHA_LEVEL", 0.05),
			Repeats: getEnvIntOrDefault("REPEATS", 20),
			Workers: getEnvIntOrDefault("WORKERS", 4),
			Seed:    int64(getEnvIntOrDefault("SEED", 0)),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Paths: PathConfig{
			ImportFile: getEnvOrDefault("IMPORT_FILE", ""),
			ExportDir:  getEnvOrDefault("EXPORT_DIR", "./reports"),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" && config.Paths.ImportFile == "" {
		return errors.ConfigInvalid("either DATABASE_URL or IMPORT_FILE is required")
	}
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("ALPHA_LEVEL must be strictly between 0 and 1")
	}
	if config.Analysis.Repeats < 1 {
		return errors.ConfigInvalid("REPEATS must be at least 1")
	}
	if config.Analysis.Workers < 1 {
		return errors.ConfigInvalid("WORKERS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
