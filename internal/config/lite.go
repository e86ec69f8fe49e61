// Package config provides configuration management for the classifier.
// This file contains the lightweight configuration for the stdio MCP server.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external databases and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir      string // Base directory for the result store and exports
	ProbbasePath string // Probbase CSV; relative paths resolve against DataDir

	// Run settings
	Malaria string
	HIV     string

	// Consistency checker; empty means pass-through
	CheckerURL string

	// Cache settings
	CacheMaxItems int           // Maximum items in memory cache
	CacheTTL      time.Duration // Default cache TTL

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".interva")

	return &LiteConfig{
		DataDir:       dataDir,
		ProbbasePath:  "probbase.csv",
		Malaria:       "h",
		HIV:           "h",
		CacheMaxItems: 1000,
		CacheTTL:      24 * time.Hour,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("INTERVA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("INTERVA_PROBBASE"); v != "" {
		cfg.ProbbasePath = v
	}

	if v := os.Getenv("INTERVA_MALARIA"); v != "" {
		cfg.Malaria = v
	}
	if v := os.Getenv("INTERVA_HIV"); v != "" {
		cfg.HIV = v
	}
	cfg.CheckerURL = os.Getenv("INTERVA_CHECKER_URL")

	if v := os.Getenv("INTERVA_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("INTERVA_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	if v := os.Getenv("INTERVA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("INTERVA_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// ResolvedProbbasePath returns ProbbasePath, anchored at DataDir when relative.
func (c *LiteConfig) ResolvedProbbasePath() string {
	if filepath.IsAbs(c.ProbbasePath) {
		return c.ProbbasePath
	}
	return filepath.Join(c.DataDir, c.ProbbasePath)
}

// StoreDBPath returns the path to the result SQLite database.
func (c *LiteConfig) StoreDBPath() string {
	return filepath.Join(c.DataDir, "results.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}
