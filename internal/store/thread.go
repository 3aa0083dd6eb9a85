package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ResolveThreadKey returns the thread id for a canonical address key,
// allocating a new one on first sight. Allocation is monotonic
// (AUTOINCREMENT) and ids are never reused, so a thread id stays valid
// for as long as any row references it.
func (db *DB) ResolveThreadKey(key, displayAddress string) (int64, error) {
	var id int64
	err := db.QueryRow(`SELECT thread_id FROM thread_keys WHERE key = ?`, key).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup thread key: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Re-check under the transaction: a concurrent resolver may have
	// allocated the key between the read above and here.
	err = tx.QueryRow(`SELECT thread_id FROM thread_keys WHERE key = ?`, key).Scan(&id)
	if err == nil {
		return id, tx.Commit()
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("recheck thread key: %w", err)
	}

	res, err := tx.Exec(`INSERT INTO threads (display_address, created_at) VALUES (?, ?)`,
		displayAddress, time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("allocate thread: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("thread id: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO thread_keys (key, thread_id) VALUES (?, ?)`, key, id); err != nil {
		return 0, fmt.Errorf("index thread key: %w", err)
	}
	return id, tx.Commit()
}

// ThreadKeys returns all canonical keys known to map to a thread.
func (db *DB) ThreadKeys(threadID int64) ([]string, error) {
	rows, err := db.Query(`SELECT key FROM thread_keys WHERE thread_id = ? ORDER BY key`, threadID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ThreadCount returns the number of allocated threads.
func (db *DB) ThreadCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM threads`).Scan(&count)
	return count, err
}
