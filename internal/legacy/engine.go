// Package legacy imports data left behind by the previous message
// store. The old store keyed chats by raw address strings, so one
// sender could own several chats; the import re-keys everything by
// resolved thread identity and consolidates the duplicates.
package legacy

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"smsguard/internal/identity"
	"smsguard/internal/ingest"
	"smsguard/internal/store"
)

// Report summarizes one import run.
type Report struct {
	Chats    int
	Messages int
	Blocked  int
	Skipped  int
	Dropped  bool
}

// Engine performs the one-time legacy import.
type Engine struct {
	db       *store.DB
	resolver identity.Resolver
	contacts ingest.ContactFinder
	logger   *zap.Logger
}

// NewEngine creates an import engine.
func NewEngine(db *store.DB, resolver identity.Resolver, contacts ingest.ContactFinder, logger *zap.Logger) *Engine {
	return &Engine{db: db, resolver: resolver, contacts: contacts, logger: logger.Named("legacy")}
}

// HasLegacyData reports whether the old store's tables are present.
func (e *Engine) HasLegacyData() (bool, error) {
	var n int
	err := e.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = 'legacy_chats'`).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("probe legacy tables: %w", err)
	}
	return n > 0, nil
}

// Run imports chats, messages and blocked senders, then drops the
// legacy tables once every row has been accounted for. Already-imported
// rows are tracked in marker tables, so an interrupted run resumes
// without double-counting unread totals. A row that cannot be imported
// is logged and skipped; it keeps the legacy tables alive for the next
// attempt.
func (e *Engine) Run() (*Report, error) {
	done, err := e.db.GetBoolSetting(store.SettingLegacyImportDone, false)
	if err != nil {
		return nil, err
	}
	if done {
		return &Report{}, nil
	}

	has, err := e.HasLegacyData()
	if err != nil {
		return nil, err
	}
	if !has {
		if err := e.db.SetBoolSetting(store.SettingLegacyImportDone, true); err != nil {
			return nil, err
		}
		return &Report{}, nil
	}

	if err := e.ensureMarkers(); err != nil {
		return nil, err
	}

	report := &Report{}
	if err := e.importChats(report); err != nil {
		return report, err
	}
	if err := e.importMessages(report); err != nil {
		return report, err
	}
	if err := e.importBlocked(report); err != nil {
		return report, err
	}

	if report.Skipped == 0 {
		if err := e.dropLegacy(); err != nil {
			return report, err
		}
		report.Dropped = true
		if err := e.db.SetBoolSetting(store.SettingLegacyImportDone, true); err != nil {
			return report, err
		}
	} else {
		e.logger.Warn("legacy tables kept for retry", zap.Int("skipped", report.Skipped))
	}

	e.logger.Info("legacy import finished",
		zap.Int("chats", report.Chats),
		zap.Int("messages", report.Messages),
		zap.Int("blocked", report.Blocked),
		zap.Int("skipped", report.Skipped),
		zap.Bool("dropped", report.Dropped))
	return report, nil
}

// stripMarker removes the kind tag the old store baked into stored
// addresses. Resolution re-derives the kind from the bare address.
func stripMarker(address string) string {
	for _, marker := range []string{"short:", "alpha:", "raw:"} {
		if rest, ok := strings.CutPrefix(address, marker); ok {
			return rest
		}
	}
	return address
}

func (e *Engine) ensureMarkers() error {
	_, err := e.db.Exec(`
		CREATE TABLE IF NOT EXISTS legacy_migrated_chats (legacy_id INTEGER PRIMARY KEY);
		CREATE TABLE IF NOT EXISTS legacy_migrated_messages (legacy_id INTEGER PRIMARY KEY)`)
	if err != nil {
		return fmt.Errorf("create marker tables: %w", err)
	}
	return nil
}

type legacyChat struct {
	id          int64
	address     string
	contactName sql.NullString
	lastBody    string
	lastAt      int64
	unread      int
}

func (e *Engine) importChats(report *Report) error {
	rows, err := e.db.Query(`
		SELECT c.id, c.address, c.contact_name, c.last_message, c.last_message_at, c.unread_count
		FROM legacy_chats c
		LEFT JOIN legacy_migrated_chats m ON m.legacy_id = c.id
		WHERE m.legacy_id IS NULL
		ORDER BY c.id`)
	if err != nil {
		return fmt.Errorf("list legacy chats: %w", err)
	}
	chats := []legacyChat{}
	for rows.Next() {
		var c legacyChat
		if err := rows.Scan(&c.id, &c.address, &c.contactName, &c.lastBody, &c.lastAt, &c.unread); err != nil {
			rows.Close()
			return fmt.Errorf("scan legacy chat: %w", err)
		}
		chats = append(chats, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate legacy chats: %w", err)
	}

	for _, c := range chats {
		if err := e.importChat(c); err != nil {
			e.logger.Warn("legacy chat skipped",
				zap.Int64("legacy_id", c.id), zap.String("address", c.address), zap.Error(err))
			report.Skipped++
			continue
		}
		report.Chats++
	}
	return nil
}

func (e *Engine) importChat(c legacyChat) error {
	address := stripMarker(c.address)
	threadID, err := e.resolver.Resolve(address)
	if err != nil {
		return err
	}

	contact, err := e.contacts.FindByPhone(address)
	if err != nil {
		return err
	}
	var name any
	if contact != nil {
		name = contact.DisplayName
	} else if c.contactName.Valid && c.contactName.String != "" {
		name = c.contactName.String
	}
	isInbox := contact != nil

	tx, err := e.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Two legacy chats for the same sender fold into one conversation:
	// newest last-message fields win, unread counts add up.
	now := time.Now().UnixMilli()
	if _, err := tx.Exec(`
		INSERT INTO conversations (thread_id, address, contact_name, last_message_body, last_message_at, unread_count, is_inbox, is_pinned, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			last_message_body = CASE
				WHEN excluded.last_message_at >= conversations.last_message_at THEN excluded.last_message_body
				ELSE conversations.last_message_body END,
			last_message_at = MAX(conversations.last_message_at, excluded.last_message_at),
			unread_count = conversations.unread_count + excluded.unread_count,
			contact_name = COALESCE(excluded.contact_name, conversations.contact_name),
			is_inbox = excluded.is_inbox,
			updated_at = excluded.updated_at`,
		threadID, address, name, c.lastBody, c.lastAt, c.unread, isInbox, now); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO legacy_migrated_chats (legacy_id) VALUES (?)`, c.id); err != nil {
		return err
	}
	return tx.Commit()
}

type legacyMessage struct {
	id        int64
	chatID    sql.NullInt64
	address   string
	body      string
	timestamp int64
	direction string
	read      bool
}

// chatThreadMap resolves every legacy chat's address once so the
// message pass can re-key by legacy chat id.
func (e *Engine) chatThreadMap() (map[int64]int64, error) {
	rows, err := e.db.Query(`SELECT id, address FROM legacy_chats`)
	if err != nil {
		return nil, fmt.Errorf("map legacy chats: %w", err)
	}
	defer rows.Close()

	m := make(map[int64]int64)
	for rows.Next() {
		var id int64
		var addr string
		if err := rows.Scan(&id, &addr); err != nil {
			return nil, fmt.Errorf("scan legacy chat mapping: %w", err)
		}
		threadID, err := e.resolver.Resolve(stripMarker(addr))
		if err != nil {
			e.logger.Warn("legacy chat unmappable", zap.Int64("legacy_id", id), zap.Error(err))
			continue
		}
		m[id] = threadID
	}
	return m, rows.Err()
}

func (e *Engine) importMessages(report *Report) error {
	threads, err := e.chatThreadMap()
	if err != nil {
		return err
	}

	rows, err := e.db.Query(`
		SELECT msg.id, msg.chat_id, COALESCE(NULLIF(msg.address, ''), c.address, ''), msg.body, msg.timestamp, msg.direction, msg.read
		FROM legacy_messages msg
		LEFT JOIN legacy_chats c ON c.id = msg.chat_id
		LEFT JOIN legacy_migrated_messages m ON m.legacy_id = msg.id
		WHERE m.legacy_id IS NULL
		ORDER BY msg.id`)
	if err != nil {
		return fmt.Errorf("list legacy messages: %w", err)
	}
	msgs := []legacyMessage{}
	for rows.Next() {
		var m legacyMessage
		if err := rows.Scan(&m.id, &m.chatID, &m.address, &m.body, &m.timestamp, &m.direction, &m.read); err != nil {
			rows.Close()
			return fmt.Errorf("scan legacy message: %w", err)
		}
		msgs = append(msgs, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate legacy messages: %w", err)
	}

	for _, m := range msgs {
		if err := e.importMessage(threads, m); err != nil {
			e.logger.Warn("legacy message skipped",
				zap.Int64("legacy_id", m.id), zap.String("address", m.address), zap.Error(err))
			report.Skipped++
			continue
		}
		report.Messages++
	}
	return nil
}

func (e *Engine) importMessage(threads map[int64]int64, m legacyMessage) error {
	address := stripMarker(m.address)
	threadID, mapped := int64(0), false
	if m.chatID.Valid {
		threadID, mapped = threads[m.chatID.Int64]
	}
	if !mapped {
		// Chat row gone; fall back to resolving the message's own
		// address.
		if address == "" {
			return fmt.Errorf("no address for legacy message")
		}
		var err error
		threadID, err = e.resolver.Resolve(address)
		if err != nil {
			return err
		}
	}

	direction := store.DirectionReceived
	status := store.StatusReceived
	if m.direction == "sent" {
		direction = store.DirectionSent
		status = store.StatusSent
	}

	tx, err := e.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	// Orphan messages whose chat row is gone still need a conversation
	// for the foreign key; seed a minimal one without touching an
	// existing row.
	if _, err := tx.Exec(`
		INSERT INTO conversations (thread_id, address, last_message_body, last_message_at, unread_count, is_inbox, is_pinned, updated_at)
		VALUES (?, ?, ?, ?, 0, 0, 0, ?)
		ON CONFLICT(thread_id) DO NOTHING`,
		threadID, address, m.body, m.timestamp, now); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO messages (thread_id, address, body, timestamp, direction, status, is_read, error_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		threadID, address, m.body, m.timestamp, direction, status, m.read, now); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO legacy_migrated_messages (legacy_id) VALUES (?)`, m.id); err != nil {
		return err
	}
	return tx.Commit()
}

func (e *Engine) importBlocked(report *Report) error {
	rows, err := e.db.Query(`SELECT address, COALESCE(reason, '') FROM legacy_blocked_senders ORDER BY id`)
	if err != nil {
		return fmt.Errorf("list legacy blocked senders: %w", err)
	}
	type blockedRow struct {
		address string
		reason  string
	}
	blocked := []blockedRow{}
	for rows.Next() {
		var b blockedRow
		if err := rows.Scan(&b.address, &b.reason); err != nil {
			rows.Close()
			return fmt.Errorf("scan legacy blocked sender: %w", err)
		}
		blocked = append(blocked, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate legacy blocked senders: %w", err)
	}

	for _, b := range blocked {
		addr := stripMarker(b.address)
		threadID, err := e.resolver.Resolve(addr)
		if err != nil {
			e.logger.Warn("legacy blocked sender skipped",
				zap.String("address", b.address), zap.Error(err))
			report.Skipped++
			continue
		}
		if err := e.db.BlockThread(threadID, addr, b.reason); err != nil {
			e.logger.Warn("legacy blocked sender skipped",
				zap.String("address", b.address), zap.Error(err))
			report.Skipped++
			continue
		}
		report.Blocked++
	}
	return nil
}

func (e *Engine) dropLegacy() error {
	_, err := e.db.Exec(`
		DROP TABLE IF EXISTS legacy_messages;
		DROP TABLE IF EXISTS legacy_chats;
		DROP TABLE IF EXISTS legacy_blocked_senders;
		DROP TABLE IF EXISTS legacy_migrated_chats;
		DROP TABLE IF EXISTS legacy_migrated_messages`)
	if err != nil {
		return fmt.Errorf("drop legacy tables: %w", err)
	}
	return nil
}
