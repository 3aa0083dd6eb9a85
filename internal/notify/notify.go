// Package notify defines the notification boundary. Sinks are
// fire-and-forget: the pipeline never waits on presentation.
package notify

import (
	"go.uber.org/zap"

	"smsguard/internal/bus"
)

// Sink receives notification requests. Implementations must not block.
type Sink interface {
	// NotifyInbox announces a trusted message with its content.
	NotifyInbox(messageID int64, displayName, body string, threadID int64)
	// NotifyQuarantine announces that something arrived in quarantine,
	// without exposing any content.
	NotifyQuarantine(messageID int64, threadID int64)
}

// InboxNotification is the payload of a notify.inbox bus event.
type InboxNotification struct {
	MessageID   int64
	DisplayName string
	Body        string
	ThreadID    int64
}

// QuarantineNotification is the payload of a notify.quarantine bus
// event. Deliberately content-free.
type QuarantineNotification struct {
	MessageID int64
	ThreadID  int64
}

// BusSink publishes notifications as bus events for whatever
// presentation layer is attached. Publishing never blocks; events to a
// slow subscriber are dropped, which is acceptable for notifications.
type BusSink struct {
	bus *bus.Bus
}

// NewBusSink creates a bus-backed sink.
func NewBusSink(b *bus.Bus) *BusSink {
	return &BusSink{bus: b}
}

func (s *BusSink) NotifyInbox(messageID int64, displayName, body string, threadID int64) {
	s.bus.Emit(bus.KindNotifyInbox, &InboxNotification{
		MessageID:   messageID,
		DisplayName: displayName,
		Body:        body,
		ThreadID:    threadID,
	})
}

func (s *BusSink) NotifyQuarantine(messageID int64, threadID int64) {
	s.bus.Emit(bus.KindNotifyQuarantine, &QuarantineNotification{
		MessageID: messageID,
		ThreadID:  threadID,
	})
}

// LogSink writes notifications to the log. Useful for headless
// deployments and as the default until a presenter subscribes.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) NotifyInbox(messageID int64, displayName, body string, threadID int64) {
	s.logger.Info("inbox notification",
		zap.Int64("message_id", messageID),
		zap.String("from", displayName),
		zap.Int64("thread_id", threadID))
}

func (s *LogSink) NotifyQuarantine(messageID int64, threadID int64) {
	s.logger.Info("quarantine notification",
		zap.Int64("message_id", messageID),
		zap.Int64("thread_id", threadID))
}
