// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	FilePath        string // Path to the encrypted portfolio file
	Password        string // Password for the portfolio file
	Port            int
	LogLevel        string
	DevMode         bool
	RefreshSchedule string // Cron expression for the daily price refresh
	AutoSave        bool   // Save the portfolio after scheduled refreshes
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	filePath := getEnv("SVTK_FILE", "portfolio.svtk")
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve portfolio file path: %w", err)
	}

	cfg := &Config{
		FilePath:        absPath,
		Password:        getEnv("SVTK_PASSWORD", ""),
		Port:            getEnvAsInt("SVTK_PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		RefreshSchedule: getEnv("SVTK_REFRESH_SCHEDULE", "0 6 * * *"),
		AutoSave:        getEnvAsBool("SVTK_AUTO_SAVE", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.Password == "" {
		return fmt.Errorf("SVTK_PASSWORD is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
