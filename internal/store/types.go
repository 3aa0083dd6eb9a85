package store

// Message direction values.
const (
	DirectionReceived = "received"
	DirectionSent     = "sent"
)

// Message status values.
const (
	StatusPending  = "pending"
	StatusSent     = "sent"
	StatusReceived = "received"
	StatusFailed   = "failed"
)

// Conversation is the per-thread summary row. One row per thread id;
// created by the first message referencing the thread, deleted when the
// thread's last message goes away.
type Conversation struct {
	ThreadID      int64
	Address       string
	ContactName   string // empty when the sender is not a saved contact
	LastBody      string
	LastTimestamp int64
	UnreadCount   int
	IsInbox       bool
	IsPinned      bool
}

// Message is one stored SMS. ThreadID references a Conversation row;
// the referential ordering contract requires the conversation upsert to
// land first.
type Message struct {
	ID        int64
	ThreadID  int64
	Address   string
	Body      string
	Timestamp int64
	Direction string
	Status    string
	IsRead    bool
	ErrorCode string
}

// Contact is one synced contact, keyed by its canonical E.164 phone key.
type Contact struct {
	ID          int64
	PhoneKey    string
	DisplayName string
	SyncedAt    int64
}

// BlockedThread marks a thread as blocked. Presence of a row means
// blocked; the key is the thread id, never an address, so blocking
// survives address-format drift.
type BlockedThread struct {
	ThreadID  int64
	Address   string
	BlockedAt int64
	Reason    string
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
