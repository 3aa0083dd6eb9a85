package store

import (
	"database/sql"
	"time"
)

// BlockThread marks a thread as blocked. Re-blocking an already blocked
// thread keeps the original row untouched.
func (db *DB) BlockThread(threadID int64, address, reason string) error {
	var r any
	if reason != "" {
		r = reason
	}
	_, err := db.Exec(`
		INSERT INTO blocked_threads (thread_id, address, blocked_at, reason)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(thread_id) DO NOTHING`,
		threadID, address, time.Now().UnixMilli(), r)
	return err
}

// UnblockThread removes the block row. Unblocking a thread that was
// never blocked is a no-op.
func (db *DB) UnblockThread(threadID int64) error {
	_, err := db.Exec(`DELETE FROM blocked_threads WHERE thread_id = ?`, threadID)
	return err
}

// IsThreadBlocked reports whether a block row exists for the thread.
func (db *DB) IsThreadBlocked(threadID int64) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM blocked_threads WHERE thread_id = ?`, threadID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListBlockedThreads returns blocked threads, most recently blocked first.
func (db *DB) ListBlockedThreads() ([]BlockedThread, error) {
	rows, err := db.Query(`
		SELECT thread_id, address, blocked_at, COALESCE(reason, '')
		FROM blocked_threads ORDER BY blocked_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var blocked []BlockedThread
	for rows.Next() {
		var b BlockedThread
		if err := rows.Scan(&b.ThreadID, &b.Address, &b.BlockedAt, &b.Reason); err != nil {
			return nil, err
		}
		blocked = append(blocked, b)
	}
	return blocked, rows.Err()
}
