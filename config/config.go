// Package config provides configuration management for the desktop shell.
// It handles loading, saving, and managing application settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yllada/deskshell/common"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// ThemeMode is the authoritative theme source: "dark", "light" or "system".
	ThemeMode string `yaml:"theme_mode"`
	// LogLevel is the lowest level written to the log: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// LogMaxSizeMB caps a single day-file segment.
	LogMaxSizeMB int `yaml:"log_max_size_mb"`
	// Headless runs without native windows.
	Headless bool `yaml:"headless"`
	// ShowTray shows the system tray icon.
	ShowTray bool `yaml:"show_tray"`

	path string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ThemeMode:    common.ThemeSystem,
		LogLevel:     "info",
		LogMaxSizeMB: common.DefaultLogMaxSizeMB,
		Headless:     false,
		ShowTray:     true,
	}
}

// DefaultPath returns ~/.config/deskshell/config.yaml.
func DefaultPath() (string, error) {
	dir, err := common.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	return filepath.Join(dir, common.ConfigFileName), nil
}

// Load reads the configuration at path, or the default path when empty.
// A missing file yields the defaults and writes them out.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		cfg.path = path
		if err := cfg.Save(); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	cfg := DefaultConfig()
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrConfigLoad, path, err)
	}
	cfg.path = path
	cfg.validate()

	return cfg, nil
}

// validate replaces invalid values with their defaults.
func (c *Config) validate() {
	defaults := DefaultConfig()

	switch c.ThemeMode {
	case common.ThemeDark, common.ThemeLight, common.ThemeSystem:
	default:
		c.ThemeMode = defaults.ThemeMode
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = defaults.LogLevel
	}

	if c.LogMaxSizeMB <= 0 {
		c.LogMaxSizeMB = defaults.LogMaxSizeMB
	}
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to its file.
func (c *Config) Save() error {
	if c.path == "" {
		path, err := DefaultPath()
		if err != nil {
			return err
		}
		c.path = path
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	return nil
}
