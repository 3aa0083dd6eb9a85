package store

import (
	"database/sql"
	"fmt"
)

// ListMessages returns messages for a thread using keyset pagination by
// timestamp, oldest-first within the page. Timestamp ties break by
// insertion order (rowid).
func (db *DB) ListMessages(threadID int64, afterID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, thread_id, address, body, timestamp, direction, status, is_read, COALESCE(error_code, '')
		FROM messages
		WHERE thread_id = ? AND id > ?
		ORDER BY timestamp ASC, id ASC
		LIMIT ?`, threadID, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Address, &m.Body, &m.Timestamp,
			&m.Direction, &m.Status, &m.IsRead, &m.ErrorCode); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetMessage returns a single message by id.
func (db *DB) GetMessage(id int64) (*Message, error) {
	var m Message
	err := db.QueryRow(`
		SELECT id, thread_id, address, body, timestamp, direction, status, is_read, COALESCE(error_code, '')
		FROM messages WHERE id = ?`, id).
		Scan(&m.ID, &m.ThreadID, &m.Address, &m.Body, &m.Timestamp,
			&m.Direction, &m.Status, &m.IsRead, &m.ErrorCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMessageStatus records the outcome of an outbound send attempt.
func (db *DB) UpdateMessageStatus(id int64, status, errorCode string) error {
	var ec any
	if errorCode != "" {
		ec = errorCode
	}
	_, err := db.Exec(`UPDATE messages SET status = ?, error_code = ? WHERE id = ?`, status, ec, id)
	return err
}

// DeleteMessage removes one message. When it was the thread's last
// message the conversation row goes too, so no ghost conversation with
// an empty history survives.
func (db *DB) DeleteMessage(id int64) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var threadID int64
	err = tx.QueryRow(`SELECT thread_id FROM messages WHERE id = ?`, id).Scan(&threadID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup message: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	var remaining int64
	if err := tx.QueryRow(`SELECT COUNT(*) FROM messages WHERE thread_id = ?`, threadID).Scan(&remaining); err != nil {
		return fmt.Errorf("count remaining: %w", err)
	}
	if remaining == 0 {
		if _, err := tx.Exec(`DELETE FROM conversations WHERE thread_id = ?`, threadID); err != nil {
			return fmt.Errorf("delete empty conversation: %w", err)
		}
	}
	return tx.Commit()
}

// MarkThreadRead marks every received message in a thread as read and
// zeroes the conversation's unread count, as one transaction.
func (db *DB) MarkThreadRead(threadID int64) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE messages SET is_read = 1 WHERE thread_id = ? AND direction = ?`,
		threadID, DirectionReceived); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	if _, err := tx.Exec(`UPDATE conversations SET unread_count = 0 WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("reset unread count: %w", err)
	}
	return tx.Commit()
}

// RecountUnread reconciles a conversation's unread counter against the
// actual unread received messages in its thread.
func (db *DB) RecountUnread(threadID int64) error {
	_, err := db.Exec(`
		UPDATE conversations SET unread_count = (
			SELECT COUNT(*) FROM messages
			WHERE thread_id = conversations.thread_id AND direction = ? AND is_read = 0
		) WHERE thread_id = ?`, DirectionReceived, threadID)
	return err
}

// MessageCount returns the total number of messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
