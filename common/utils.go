// Package common provides shared constants, types, and utilities
// used across the desktop shell.
package common

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns the path to the application configuration directory.
// It creates the directory if it doesn't exist.
func GetConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", WrapError(err, "failed to get config directory")
	}

	configDir := filepath.Join(base, ConfigDirName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", WrapError(err, "failed to create config directory")
	}

	return configDir, nil
}

// GetLogDir returns the log directory path without creating it.
// XDG_STATE_HOME is honoured, falling back to ~/.local/state.
func GetLogDir() (string, error) {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, ConfigDirName, "logs"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", WrapError(err, "failed to get home directory")
	}
	return filepath.Join(homeDir, ".local", "state", ConfigDirName, "logs"), nil
}

// GetRuntimeDir returns the per-user runtime directory used for the instance lock.
func GetRuntimeDir() (string, error) {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	runtimeDir := filepath.Join(base, ConfigDirName)
	if err := os.MkdirAll(runtimeDir, 0700); err != nil {
		return "", WrapError(err, "failed to create runtime directory")
	}
	return runtimeDir, nil
}

// IsSymlink checks if a path is a symbolic link.
// Returns false if path doesn't exist (safe to create).
func IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}
