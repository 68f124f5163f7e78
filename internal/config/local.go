package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LocalConfigPath is the per-project identity file, relative to the project directory.
const LocalConfigPath = ".claude/agent-monitor/config.json"

// LocalConfig pins the project and worker names reported for a checkout.
type LocalConfig struct {
	Repo     string `mapstructure:"repo" json:"repo,omitempty"`
	Worktree string `mapstructure:"worktree" json:"worktree,omitempty"`
}

// ErrNoLocalConfig is returned when a directory has no identity file.
var ErrNoLocalConfig = errors.New("no local agent-monitor config")

// LoadLocal loads the identity file under dir.
func LoadLocal(dir string) (*LocalConfig, error) {
	return LoadLocalFromPath(filepath.Join(dir, LocalConfigPath))
}

// LoadLocalFromPath loads an identity file from a specific path.
func LoadLocalFromPath(localPath string) (*LocalConfig, error) {
	if _, err := os.Stat(localPath); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoLocalConfig
	}

	v := viper.New()
	v.SetConfigFile(localPath)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read local config file: %w", err)
	}

	var cfg LocalConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse local config file: %w", err)
	}
	cfg.Repo = strings.TrimSpace(cfg.Repo)
	cfg.Worktree = strings.TrimSpace(cfg.Worktree)

	return &cfg, nil
}

// IsSet reports whether the file names at least one half of the identity.
func (l *LocalConfig) IsSet() bool {
	return l != nil && (l.Repo != "" || l.Worktree != "")
}

// WriteLocal writes the identity file under dir, creating .claude/agent-monitor as needed.
func WriteLocal(dir string, local LocalConfig) (string, error) {
	path := filepath.Join(dir, LocalConfigPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(local, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal local config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write local config: %w", err)
	}
	return path, nil
}
