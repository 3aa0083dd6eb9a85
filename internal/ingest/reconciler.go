package ingest

import (
	"database/sql"
	"fmt"
	"time"

	"smsguard/internal/store"
)

// ContactFinder resolves an address to its saved contact, if any.
// *contacts.Directory satisfies it.
type ContactFinder interface {
	FindByPhone(rawAddress string) (*store.Contact, error)
}

// Reconciler maintains the per-thread conversation summary. One call
// folds one message into the summary: last message fields, unread
// counter, and a fresh contact-name/classification snapshot, so a
// contact saved after the fact flips a quarantine thread to inbox on
// its next message.
type Reconciler struct {
	db       *store.DB
	contacts ContactFinder
}

// NewReconciler creates a reconciler.
func NewReconciler(db *store.DB, contacts ContactFinder) *Reconciler {
	return &Reconciler{db: db, contacts: contacts}
}

// Applied reports the outcome of one reconcile+insert unit.
type Applied struct {
	MessageID   int64
	DisplayName string
	IsInbox     bool
}

// Apply upserts the conversation for threadID and then inserts the
// message, inside tx. The conversation write always precedes the
// message insert; a message row must never reference a thread without
// a conversation.
func (r *Reconciler) Apply(tx *sql.Tx, threadID int64, address string, m *store.Message) (*Applied, error) {
	contact, err := r.contacts.FindByPhone(address)
	if err != nil {
		return nil, fmt.Errorf("contact lookup: %w", err)
	}

	var contactName any
	displayName := address
	if contact != nil {
		contactName = contact.DisplayName
		displayName = contact.DisplayName
	}
	isInbox := contact != nil

	unreadDelta := 0
	if m.Direction == store.DirectionReceived {
		unreadDelta = 1
	}

	now := time.Now().UnixMilli()
	if _, err := tx.Exec(`
		INSERT INTO conversations (thread_id, address, contact_name, last_message_body, last_message_at, unread_count, is_inbox, is_pinned, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			address = excluded.address,
			contact_name = excluded.contact_name,
			last_message_body = excluded.last_message_body,
			last_message_at = excluded.last_message_at,
			unread_count = conversations.unread_count + excluded.unread_count,
			is_inbox = excluded.is_inbox,
			updated_at = excluded.updated_at`,
		threadID, address, contactName, m.Body, m.Timestamp, unreadDelta, isInbox, now); err != nil {
		return nil, fmt.Errorf("upsert conversation: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO messages (thread_id, address, body, timestamp, direction, status, is_read, error_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		threadID, m.Address, m.Body, m.Timestamp, m.Direction, m.Status, m.IsRead, now)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	msgID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}

	return &Applied{MessageID: msgID, DisplayName: displayName, IsInbox: isInbox}, nil
}
