// Package config handles loading and managing agentmon configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. AGENT_MONITOR_POLL_INTERVAL.
const EnvPrefix = "AGENT_MONITOR"

// LegacyDirEnv is the older variable naming the status directory; reporters still set it.
const LegacyDirEnv = "AGENT_MONITOR_DIR"

// Config represents ~/.config/agentmon/config.yaml after defaults and environment are applied.
type Config struct {
	StatusDir    string        `mapstructure:"status_dir"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	StaleAfter   time.Duration `mapstructure:"stale_after"`
	ReapAfter    time.Duration `mapstructure:"reap_after"`
	MaxEntries   int           `mapstructure:"max_entries"`
	Hide         []string      `mapstructure:"hide"`
	LogFile      string        `mapstructure:"log_file"`

	// Internal: path to the config file, empty when none was read
	configPath string
}

// fileConfig is the on-disk shape; durations are written as "1s", "10m0s".
type fileConfig struct {
	StatusDir    string   `yaml:"status_dir"`
	PollInterval string   `yaml:"poll_interval"`
	StaleAfter   string   `yaml:"stale_after"`
	ReapAfter    string   `yaml:"reap_after"`
	MaxEntries   int      `yaml:"max_entries"`
	Hide         []string `yaml:"hide"`
	LogFile      string   `yaml:"log_file,omitempty"`
}

// DefaultPath returns ~/.config/agentmon/config.yaml, honouring XDG_CONFIG_HOME.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "agentmon", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "agentmon", "config.yaml")
	}
	return filepath.Join(home, ".config", "agentmon", "config.yaml")
}

// Load reads the config at path, or DefaultPath when path is empty. A missing
// file at the default location is not an error; an explicit path must exist.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFromPath(path)
	}
	path = DefaultPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return loadFrom(newViper(), "")
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return loadFrom(v, configPath)
}

func newViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("status_dir", d.StatusDir)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("stale_after", d.StaleAfter)
	v.SetDefault("reap_after", d.ReapAfter)
	v.SetDefault("max_entries", d.MaxEntries)
	v.SetDefault("hide", d.Hide)
	v.SetDefault("log_file", d.LogFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("status_dir", EnvPrefix+"_STATUS_DIR", LegacyDirEnv)
	return v
}

func loadFrom(v *viper.Viper, configPath string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.configPath = configPath
	cfg.StatusDir = ExpandHome(cfg.StatusDir)
	cfg.LogFile = ExpandHome(cfg.LogFile)
	return MergeWithDefaults(&cfg), nil
}

// ConfigPath returns the path to the loaded config file.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// Validate rejects values that would make polling misbehave.
func (c *Config) Validate() error {
	if c.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("poll_interval %s is too short (minimum 100ms)", c.PollInterval)
	}
	if c.StaleAfter < 0 || c.ReapAfter < 0 {
		return fmt.Errorf("stale_after and reap_after must not be negative")
	}
	if c.ReapAfter > 0 && c.StaleAfter > c.ReapAfter {
		return fmt.Errorf("stale_after (%s) must not exceed reap_after (%s)", c.StaleAfter, c.ReapAfter)
	}
	return nil
}

// YAML renders the config in its file format.
func (c *Config) YAML() ([]byte, error) {
	fc := fileConfig{
		StatusDir:    c.StatusDir,
		PollInterval: c.PollInterval.String(),
		StaleAfter:   c.StaleAfter.String(),
		ReapAfter:    c.ReapAfter.String(),
		MaxEntries:   c.MaxEntries,
		Hide:         c.Hide,
		LogFile:      c.LogFile,
	}
	if fc.Hide == nil {
		fc.Hide = []string{}
	}
	data, err := yaml.Marshal(&fc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Write writes cfg to path, creating parent directories.
func Write(path string, cfg *Config) error {
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	content := "# agentmon configuration\n" + string(data)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
