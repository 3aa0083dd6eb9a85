package store

import (
	"database/sql"
)

// GetConversation returns a single conversation by thread id.
func (db *DB) GetConversation(threadID int64) (*Conversation, error) {
	var c Conversation
	var name sql.NullString
	err := db.QueryRow(`
		SELECT thread_id, address, contact_name, last_message_body, last_message_at,
		       unread_count, is_inbox, is_pinned
		FROM conversations WHERE thread_id = ?`, threadID).
		Scan(&c.ThreadID, &c.Address, &name, &c.LastBody, &c.LastTimestamp,
			&c.UnreadCount, &c.IsInbox, &c.IsPinned)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.ContactName = name.String
	return &c, nil
}

// ListConversations returns conversations sorted pinned-first, then by
// last message timestamp descending. inbox filters by classification;
// pass nil for all.
func (db *DB) ListConversations(inbox *bool, limit, offset int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `
		SELECT thread_id, address, contact_name, last_message_body, last_message_at,
		       unread_count, is_inbox, is_pinned
		FROM conversations`
	args := []any{}
	if inbox != nil {
		q += ` WHERE is_inbox = ?`
		args = append(args, *inbox)
	}
	q += ` ORDER BY is_pinned DESC, last_message_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		var name sql.NullString
		if err := rows.Scan(&c.ThreadID, &c.Address, &name, &c.LastBody, &c.LastTimestamp,
			&c.UnreadCount, &c.IsInbox, &c.IsPinned); err != nil {
			return nil, err
		}
		c.ContactName = name.String
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// DeleteConversation removes a conversation; its messages cascade away.
func (db *DB) DeleteConversation(threadID int64) error {
	_, err := db.Exec(`DELETE FROM conversations WHERE thread_id = ?`, threadID)
	return err
}

// SetPinned toggles the pinned flag on a conversation.
func (db *DB) SetPinned(threadID int64, pinned bool) error {
	_, err := db.Exec(`UPDATE conversations SET is_pinned = ? WHERE thread_id = ?`, pinned, threadID)
	return err
}

// ConversationCount returns the total number of conversations.
func (db *DB) ConversationCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&count)
	return count, err
}
