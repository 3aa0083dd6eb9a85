package config

import (
	"os"
	"path/filepath"
	"testing"

	"smsguard/internal/address"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.Region = "ES"
	cfg.QuarantineNotifications = false
	if err := Save(path, &cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Region != "ES" {
		t.Errorf("Region = %q, want %q", loaded.Region, "ES")
	}
	if loaded.QuarantineNotifications {
		t.Error("QuarantineNotifications = true, want false")
	}
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Region != "US" {
		t.Errorf("Region = %q, want US default", cfg.Region)
	}
	if cfg.ShortCodeMaxDigits != address.DefaultShortCodeMax {
		t.Errorf("ShortCodeMaxDigits = %d, want %d", cfg.ShortCodeMaxDigits, address.DefaultShortCodeMax)
	}
	if cfg.ContactsPath == "" {
		t.Error("ContactsPath should default under data dir")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SMSGUARD_REGION", "GB")
	t.Setenv("SMSGUARD_SHORT_CODE_MAX_DIGITS", "5")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Region != "GB" {
		t.Errorf("Region = %q, want GB from env", cfg.Region)
	}
	if cfg.ShortCodeMaxDigits != 5 {
		t.Errorf("ShortCodeMaxDigits = %d, want 5 from env", cfg.ShortCodeMaxDigits)
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	if err := Save(path, &cfg); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
