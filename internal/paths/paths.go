// Package paths defines the on-disk layout of the smsguard data
// directory. All state lives under one base dir so a deployment can be
// backed up or wiped as a unit.
package paths

import (
	"os"
	"path/filepath"
)

// Base returns the default data directory, ~/.smsguard. An explicit
// data dir from config overrides it; these helpers then take that dir.
func Base() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".smsguard")
}

// DBPath returns the SQLite database path under dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "smsguard.db")
}

// LogDir returns the log directory under dataDir.
func LogDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}

// LogPath returns the daemon log file path under dataDir.
func LogPath(dataDir string) string {
	return filepath.Join(LogDir(dataDir), "smsguardd.log")
}

// ConfigPath returns the config file path under dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// ContactsPath returns the default contacts file path under dataDir.
func ContactsPath(dataDir string) string {
	return filepath.Join(dataDir, "contacts.toml")
}

// EnsureDirs creates the data directory tree with proper permissions.
func EnsureDirs(dataDir string) error {
	dirs := []string{
		dataDir,
		LogDir(dataDir),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
