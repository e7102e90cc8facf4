// Package config provides configuration management for the console core.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// Config is the configuration contract between the CLI and the console
// core.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\drivedeck\config
//   - Unix: ~/.config/drivedeck/config
//
// INI format:
//
//	[drivedeck]
//	platform_url = https://files.example.com
//	token = <bearer-token>
//
//	[drivedeck.notifications]
//	enabled = true
//	show_upload_complete = true
//	show_upload_failed = true
//
//	[drivedeck.localstore]
//	enabled = true
//	path = ~/.local/share/drivedeck/items.json
type Config struct {
	// Connection settings
	PlatformURL string `ini:"platform_url"`
	Token       string `ini:"token"`

	// Notification settings
	Notifications NotificationConfig

	// Local fallback store settings
	LocalStore LocalStoreConfig
}

// NotificationConfig contains settings for desktop notifications.
type NotificationConfig struct {
	// Enabled indicates whether notifications are shown.
	// Default: true
	Enabled bool `ini:"enabled"`

	// ShowUploadComplete shows a notification when an upload commits.
	// Default: true
	ShowUploadComplete bool `ini:"show_upload_complete"`

	// ShowUploadFailed shows a notification when an upload fails.
	// Default: true
	ShowUploadFailed bool `ini:"show_upload_failed"`
}

// LocalStoreConfig contains settings for the local fallback item store.
type LocalStoreConfig struct {
	// Enabled selects the local store as the upload commit target when
	// no backend is reachable.
	Enabled bool `ini:"enabled"`

	// Path is the location of the serialized item document.
	// Empty means the default under the user data directory.
	Path string `ini:"path"`
}

// Validation errors
var (
	ErrMissingPlatformURL = errors.New("platform_url is required")
	ErrMissingToken       = errors.New("token is required (run 'drivedeck login')")
	ErrMissingStorePath   = errors.New("localstore path could not be determined")
)

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		configDir = filepath.Join(userProfile, ".config", "drivedeck")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "drivedeck")
	}

	return filepath.Join(configDir, "config"), nil
}

// DefaultStorePath returns the default path for the local item document.
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "drivedeck", "items.json"), nil
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		PlatformURL: "https://files.example.com",
		Notifications: NotificationConfig{
			Enabled:            true,
			ShowUploadComplete: true,
			ShowUploadFailed:   true,
		},
		LocalStore: LocalStoreConfig{
			Enabled: true,
		},
	}
}

// Load loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and
// no error. If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // Return defaults if config doesn't exist
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	mainSection := iniFile.Section("drivedeck")
	cfg.PlatformURL = mainSection.Key("platform_url").MustString(cfg.PlatformURL)
	cfg.Token = mainSection.Key("token").String()

	notifySection := iniFile.Section("drivedeck.notifications")
	cfg.Notifications.Enabled = notifySection.Key("enabled").MustBool(true)
	cfg.Notifications.ShowUploadComplete = notifySection.Key("show_upload_complete").MustBool(true)
	cfg.Notifications.ShowUploadFailed = notifySection.Key("show_upload_failed").MustBool(true)

	storeSection := iniFile.Section("drivedeck.localstore")
	cfg.LocalStore.Enabled = storeSection.Key("enabled").MustBool(true)
	cfg.LocalStore.Path = storeSection.Key("path").String()

	return cfg, nil
}

// Save saves configuration to an INI file.
// Creates parent directories if they don't exist. The token is stored
// in the file, so it is written with user-only permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	mainSection, err := iniFile.NewSection("drivedeck")
	if err != nil {
		return fmt.Errorf("failed to create drivedeck section: %w", err)
	}
	mainSection.Key("platform_url").SetValue(cfg.PlatformURL)
	mainSection.Key("token").SetValue(cfg.Token)

	notifySection, err := iniFile.NewSection("drivedeck.notifications")
	if err != nil {
		return fmt.Errorf("failed to create notifications section: %w", err)
	}
	notifySection.Key("enabled").SetValue(fmt.Sprintf("%t", cfg.Notifications.Enabled))
	notifySection.Key("show_upload_complete").SetValue(fmt.Sprintf("%t", cfg.Notifications.ShowUploadComplete))
	notifySection.Key("show_upload_failed").SetValue(fmt.Sprintf("%t", cfg.Notifications.ShowUploadFailed))

	storeSection, err := iniFile.NewSection("drivedeck.localstore")
	if err != nil {
		return fmt.Errorf("failed to create localstore section: %w", err)
	}
	storeSection.Key("enabled").SetValue(fmt.Sprintf("%t", cfg.LocalStore.Enabled))
	storeSection.Key("path").SetValue(cfg.LocalStore.Path)

	// Temporary file + rename for atomicity; the token is sensitive so
	// permissions are restricted before the rename.
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks connection settings.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.PlatformURL) == "" {
		return ErrMissingPlatformURL
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

// StorePath resolves the local store path, falling back to the default.
func (cfg *Config) StorePath() (string, error) {
	if strings.TrimSpace(cfg.LocalStore.Path) != "" {
		return cfg.LocalStore.Path, nil
	}
	path, err := DefaultStorePath()
	if err != nil {
		return "", ErrMissingStorePath
	}
	return path, nil
}
