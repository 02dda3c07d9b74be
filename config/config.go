// ABOUTME: Startup configuration for the ops console
// ABOUTME: XDG JSON config file layered with .env and environment overrides
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	// AppName is the application name for config and data directories.
	AppName = "opsdesk"

	// ConfigFileName is where we store local config.
	ConfigFileName = "config.json"

	// BackendRest talks to a remote realtime store over REST.
	BackendRest = "rest"
	// BackendBadger keeps everything in a local badger database.
	BackendBadger = "badger"
	// BackendMemory holds everything in process, for demos and tests.
	BackendMemory = "memory"
)

// Config holds store connection settings and the access allow-list.
type Config struct {
	// Backend selects the store implementation: rest or badger.
	Backend string `json:"backend,omitempty"`

	// StoreURL is the remote store base URL (rest backend).
	StoreURL string `json:"store_url,omitempty"`

	// StoreToken is the bearer credential for the remote store.
	StoreToken string `json:"store_token,omitempty"`

	// DataDir is the local database directory (badger backend).
	DataDir string `json:"data_dir,omitempty"`

	// AllowedEmails is the authorization allow-list.
	AllowedEmails []string `json:"allowed_emails,omitempty"`
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendBadger,
		DataDir: filepath.Join(xdg.DataHome, AppName, "db"),
	}
}

// configPath returns the path to the config file.
func configPath() (string, error) {
	configDir := filepath.Join(xdg.ConfigHome, AppName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// LoadConfig loads config from disk, then overlays .env and environment
// variables. Missing files fall back to defaults; a present but invalid
// config file is an error, not a silent reset, because it likely holds
// credentials.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	path, err := configPath()
	if err == nil {
		data, readErr := os.ReadFile(path)
		switch {
		case readErr == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("invalid config file %s: %w", path, err)
			}
		case !os.IsNotExist(readErr):
			return nil, readErr
		}
	}

	// .env is optional and never overrides variables already set.
	_ = godotenv.Load()
	cfg.applyEnv()

	if cfg.Backend == "" {
		cfg.Backend = BackendBadger
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(xdg.DataHome, AppName, "db")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPSDESK_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("OPSDESK_STORE_URL"); v != "" {
		c.StoreURL = v
	}
	if v := os.Getenv("OPSDESK_STORE_TOKEN"); v != "" {
		c.StoreToken = v
	}
	if v := os.Getenv("OPSDESK_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("OPSDESK_ALLOWED_EMAILS"); v != "" {
		c.AllowedEmails = splitList(v)
	}
}

// Validate checks that the selected backend has what it needs. A failure
// here is fatal to the session; there is no retry path other than
// reconfiguration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRest:
		if c.StoreURL == "" {
			return fmt.Errorf("store_url is required for the rest backend (set OPSDESK_STORE_URL)")
		}
	case BackendBadger:
		if c.DataDir == "" {
			return fmt.Errorf("data_dir is required for the badger backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s, or %s)", c.Backend, BackendRest, BackendBadger, BackendMemory)
	}
	if len(c.AllowedEmails) == 0 {
		return fmt.Errorf("allowed_emails must list at least one address (set OPSDESK_ALLOWED_EMAILS)")
	}
	return nil
}

// Save persists the config to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
