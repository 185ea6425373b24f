// Package userconfig stores per-user CLI preferences that live outside any
// project directory, such as the selected server and the default policy.
package userconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	appDirName     = "absenced"
	configFileName = "config.json"
)

// UserConfig is persisted as JSON under the user's config directory
// (typically ~/.config/absenced/config.json).
type UserConfig struct {
	SelectedServerURL string `json:"selected_server_url,omitempty"`
	DefaultPolicy     string `json:"default_policy,omitempty"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}

	return filepath.Join(base, appDirName, configFileName), nil
}

// Load reads the user configuration, returning an empty config when the file
// does not exist yet.
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// mutate loads the config, applies fn, and saves the result.
func mutate(fn func(*UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	fn(cfg)
	return Save(cfg)
}

// SetSelectedServer updates the selected server URL and saves the config
func SetSelectedServer(serverURL string) error {
	return mutate(func(cfg *UserConfig) {
		cfg.SelectedServerURL = serverURL
	})
}

// GetSelectedServer returns the selected server URL, or empty string if not set
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.SelectedServerURL, nil
}

// SetDefaultPolicy stores the policy name used when a command is run without
// an explicit --policy flag and the project config names none.
func SetDefaultPolicy(name string) error {
	return mutate(func(cfg *UserConfig) {
		cfg.DefaultPolicy = name
	})
}

// GetDefaultPolicy returns the sticky default policy, or empty string if not set
func GetDefaultPolicy() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.DefaultPolicy, nil
}
