package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultStatusDir returns ~/.agent-monitor/status.
func DefaultStatusDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".agent-monitor", "status")
	}
	return filepath.Join(home, ".agent-monitor", "status")
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *Config {
	return &Config{
		StatusDir:    DefaultStatusDir(),
		PollInterval: time.Second,
		StaleAfter:   10 * time.Minute,
		ReapAfter:    24 * time.Hour,
		MaxEntries:   4096,
		Hide:         []string{},
		LogFile:      "",
	}
}

// MergeWithDefaults merges a loaded config with defaults for any missing values.
func MergeWithDefaults(cfg *Config) *Config {
	defaults := DefaultConfig()

	if cfg.StatusDir == "" {
		cfg.StatusDir = defaults.StatusDir
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = defaults.StaleAfter
	}
	if cfg.ReapAfter == 0 {
		cfg.ReapAfter = defaults.ReapAfter
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaults.MaxEntries
	}
	if cfg.Hide == nil {
		cfg.Hide = defaults.Hide
	}

	return cfg
}
