package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"smsguard/internal/address"
	"smsguard/internal/paths"
)

// Config holds daemon settings. Values load in three layers: defaults,
// then the TOML file, then SMSGUARD_* environment variables.
type Config struct {
	// DataDir is where the database, logs and lock file live.
	DataDir string `toml:"data_dir" env:"SMSGUARD_DATA_DIR"`

	// Region is the ISO-3166 alpha-2 hint for parsing national numbers.
	Region string `toml:"region" env:"SMSGUARD_REGION"`

	// ShortCodeMaxDigits is the digit count at or below which a numeric
	// address counts as a short code.
	ShortCodeMaxDigits int `toml:"short_code_max_digits" env:"SMSGUARD_SHORT_CODE_MAX_DIGITS"`

	// QuarantineNotifications seeds the persisted toggle for the
	// content-free quarantine notification.
	QuarantineNotifications bool `toml:"quarantine_notifications" env:"SMSGUARD_QUARANTINE_NOTIFICATIONS"`

	// ContactsPath points at the TOML contacts file the daemon syncs
	// from. Empty selects <data_dir>/contacts.toml.
	ContactsPath string `toml:"contacts_path" env:"SMSGUARD_CONTACTS_PATH"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:                 paths.Base(),
		Region:                  "US",
		ShortCodeMaxDigits:      address.DefaultShortCodeMax,
		QuarantineNotifications: true,
	}
}

// Load reads config from the given path, overlaying defaults, then
// applies environment overrides. A missing file is not an error; the
// environment still applies.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}

	if cfg.ContactsPath == "" {
		cfg.ContactsPath = paths.ContactsPath(cfg.DataDir)
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
