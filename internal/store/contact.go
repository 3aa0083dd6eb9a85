package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ReplaceContacts rebuilds the contacts table wholesale from one sync
// run. Stale rows are fully replaced, not merged.
func (db *DB) ReplaceContacts(contacts []Contact) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM contacts`); err != nil {
		return fmt.Errorf("clear contacts: %w", err)
	}

	now := time.Now().UnixMilli()
	for _, c := range contacts {
		if _, err := tx.Exec(`
			INSERT INTO contacts (phone_key, display_name, synced_at)
			VALUES (?, ?, ?)
			ON CONFLICT(phone_key) DO UPDATE SET
				display_name = excluded.display_name,
				synced_at = excluded.synced_at`,
			c.PhoneKey, c.DisplayName, now); err != nil {
			return fmt.Errorf("insert contact %q: %w", c.PhoneKey, err)
		}
	}
	return tx.Commit()
}

// ContactByKey returns a contact by its canonical phone key.
func (db *DB) ContactByKey(key string) (*Contact, error) {
	var c Contact
	err := db.QueryRow(`SELECT id, phone_key, display_name, synced_at FROM contacts WHERE phone_key = ?`, key).
		Scan(&c.ID, &c.PhoneKey, &c.DisplayName, &c.SyncedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// HasContactKey reports whether a contact exists for the key.
func (db *DB) HasContactKey(key string) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM contacts WHERE phone_key = ?`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ContactCount returns the number of synced contacts.
func (db *DB) ContactCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&count)
	return count, err
}
