// Package config handles configuration loading for Foreman.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Foreman.
type Config struct {
	Queue   QueueConfig   `mapstructure:"queue"`
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Plan    PlanConfig    `mapstructure:"plan"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// QueueConfig holds orchestrator queue settings.
type QueueConfig struct {
	// MaxSize is the admission ceiling for the task queue.
	MaxSize int `mapstructure:"max_size"`
	// SaveDebounce is the quiescent window before queue state is persisted.
	SaveDebounce time.Duration `mapstructure:"save_debounce"`
}

// StorageConfig holds durable store settings.
type StorageConfig struct {
	// DBPath is the SQLite database path. Empty selects the XDG default.
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig holds transport settings.
type ServerConfig struct {
	// Listen is a host:port TCP address. Empty serves stdin/stdout.
	Listen string `mapstructure:"listen"`
}

// PlanConfig holds plan-file admission settings.
type PlanConfig struct {
	// Path is the YAML plan file tasks are admitted from. Empty disables it.
	Path string `mapstructure:"path"`
	// Watch re-admits tasks when the plan file changes.
	Watch bool `mapstructure:"watch"`
}

// LoggingConfig holds debug logging settings.
type LoggingConfig struct {
	// DebugLog is the orchestrator debug log path. Empty disables it.
	DebugLog string `mapstructure:"debug_log"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (FOREMAN_*)
// 2. Project config (.foreman.yaml in current directory or parent)
// 3. User config (~/.config/foreman/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Load user config from XDG path
	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.SetEnvPrefix("FOREMAN")
	v.AutomaticEnv()
	v.BindEnv("queue.max_size", "FOREMAN_QUEUE_MAX_SIZE")
	v.BindEnv("storage.db_path", "FOREMAN_DB_PATH")
	v.BindEnv("server.listen", "FOREMAN_LISTEN")
	v.BindEnv("plan.path", "FOREMAN_PLAN_PATH")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Storage.DBPath = os.ExpandEnv(cfg.Storage.DBPath)
	cfg.Plan.Path = os.ExpandEnv(cfg.Plan.Path)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Storage.DBPath = os.ExpandEnv(cfg.Storage.DBPath)
	cfg.Plan.Path = os.ExpandEnv(cfg.Plan.Path)

	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("queue.max_size", 500)
	v.SetDefault("queue.save_debounce", "500ms")
	v.SetDefault("storage.db_path", "")
	v.SetDefault("server.listen", "")
	v.SetDefault("plan.path", "")
	v.SetDefault("plan.watch", false)
	v.SetDefault("logging.debug_log", "")
}

// getUserConfigDir returns the XDG config directory for Foreman.
func getUserConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "foreman")
	}

	// Fall back to ~/.config/foreman
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "foreman")
	}
	return filepath.Join(home, ".config", "foreman")
}

// findProjectConfig searches for .foreman.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".foreman.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Queue: QueueConfig{
			MaxSize:      500,
			SaveDebounce: 500 * time.Millisecond,
		},
	}
}
