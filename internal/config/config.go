// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"rate-engine/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Engine contains calculation defaults
	Engine EngineConfig `json:"engine"`

	// Database contains persistence configuration
	Database DatabaseConfig `json:"database"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// EngineConfig contains calculation defaults
type EngineConfig struct {
	// DefaultMethod is the aggregation method used when none is given
	DefaultMethod string `json:"default_method"`

	// TrimFraction is the trimmed-mean trim fraction
	TrimFraction float64 `json:"trim_fraction"`

	// LockWorkers bounds the parallel per-profile loop in bulk operations
	LockWorkers int `json:"lock_workers"`
}

// DatabaseConfig contains persistence settings
type DatabaseConfig struct {
	// Path is the SQLite database path
	Path string `json:"path"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".rate-engine", "rates.db")

	return &Config{
		Version: "1.0",
		Engine: EngineConfig{
			DefaultMethod: "median",
			TrimFraction:  0.10,
			LockWorkers:   4,
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
