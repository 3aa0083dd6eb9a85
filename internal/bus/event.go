package bus

import "time"

// Event kinds published in this process. Subscribers filter by prefix,
// so related kinds share a namespace.
const (
	// KindInbound carries an *Inbound payload from a delivery channel.
	KindInbound = "sms.inbound"

	KindMessageUpserted     = "message.upserted"
	KindMessageSendFailed   = "message.send_failed"
	KindConversationUpdated = "conversation.updated"
	KindConversationDeleted = "conversation.deleted"

	KindNotifyInbox      = "notify.inbox"
	KindNotifyQuarantine = "notify.quarantine"

	KindBlockAdded   = "block.added"
	KindBlockRemoved = "block.removed"

	KindContactsSynced = "contacts.synced"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Inbound is the payload of a KindInbound event: one raw message as it
// arrived from a delivery channel, before any normalization.
type Inbound struct {
	Address   string
	Body      string
	Timestamp int64 // unix millis
}
