// Package userconfig persists CLI preferences in ~/.config/trialdesk/config.json.
// Credentials are never written here; they live in the OS keyring.
package userconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Account remembers who last logged in to a server
type Account struct {
	Email     string    `json:"email"`
	LastLogin time.Time `json:"last_login"`
}

// Config is the user's local CLI configuration
type Config struct {
	// Server is used when neither --server nor TRIALDESK_SERVER is given
	Server string `json:"server,omitempty"`
	// Accounts is keyed by server host
	Accounts map[string]Account `json:"accounts,omitempty"`
}

// Path returns the location of the config file
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "trialdesk", "config.json"), nil
}

// Load reads the config file. A missing file is an empty config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config file, readable by the owner only
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	return nil
}

// LastEmail returns the email that last logged in to host, or ""
func (c *Config) LastEmail(host string) string {
	return c.Accounts[host].Email
}

// RememberLogin records a successful login to host
func (c *Config) RememberLogin(host, email string, at time.Time) {
	if c.Accounts == nil {
		c.Accounts = make(map[string]Account)
	}
	c.Accounts[host] = Account{Email: email, LastLogin: at}
}

// GetServer returns the remembered server address, or ""
func GetServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.Server, nil
}
