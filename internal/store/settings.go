package store

import (
	"database/sql"
	"time"
)

// Setting keys persisted in the settings table.
const (
	SettingQuarantineNotifications = "quarantine_notifications"
	SettingLegacyImportDone        = "legacy_import_done"
)

// SetSetting stores a settings value.
func (db *DB) SetSetting(key, value string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	return err
}

// GetSetting retrieves a settings value; fallback when the key is unset.
func (db *DB) GetSetting(key, fallback string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetBoolSetting retrieves a boolean settings value.
func (db *DB) GetBoolSetting(key string, fallback bool) (bool, error) {
	def := "0"
	if fallback {
		def = "1"
	}
	v, err := db.GetSetting(key, def)
	if err != nil {
		return false, err
	}
	return v == "1" || v == "true", nil
}

// SetBoolSetting stores a boolean settings value.
func (db *DB) SetBoolSetting(key string, value bool) error {
	v := "0"
	if value {
		v = "1"
	}
	return db.SetSetting(key, v)
}
