// Package feed exposes live views of the store. A feed emits a full
// snapshot on subscribe and again after every relevant commit, so a
// consumer renders the latest state without tracking deltas.
package feed

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"smsguard/internal/bus"
	"smsguard/internal/store"
)

const (
	feedBuffer        = 16
	conversationLimit = 200
	messageLimit      = 500
)

// Feed produces requery-on-commit streams.
type Feed struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
}

// New creates a feed over the store and bus.
func New(db *store.DB, b *bus.Bus, logger *zap.Logger) *Feed {
	return &Feed{db: db, bus: b, logger: logger.Named("feed")}
}

// Conversations streams the conversation list, filtered to one
// classification when inbox is non-nil. The channel closes when ctx is
// done.
func (f *Feed) Conversations(ctx context.Context, inbox *bool) <-chan []store.Conversation {
	out := make(chan []store.Conversation, 1)
	go stream(ctx, f, out,
		func() ([]store.Conversation, error) { return f.db.ListConversations(inbox, conversationLimit, 0) },
		func(kind string) bool {
			return strings.HasPrefix(kind, "conversation.") ||
				strings.HasPrefix(kind, "message.") ||
				strings.HasPrefix(kind, "block.") ||
				strings.HasPrefix(kind, "contacts.")
		})
	return out
}

// Messages streams one thread's message history in timestamp order.
func (f *Feed) Messages(ctx context.Context, threadID int64) <-chan []store.Message {
	out := make(chan []store.Message, 1)
	go stream(ctx, f, out,
		func() ([]store.Message, error) { return f.db.ListMessages(threadID, 0, messageLimit) },
		func(kind string) bool {
			return strings.HasPrefix(kind, "message.") ||
				strings.HasPrefix(kind, "conversation.")
		})
	return out
}

func stream[T any](ctx context.Context, f *Feed, out chan<- []T, query func() ([]T, error), relevant func(kind string) bool) {
	defer close(out)

	events, unsubscribe := f.bus.Subscribe("", feedBuffer)
	defer unsubscribe()

	emit := func() bool {
		snapshot, err := query()
		if err != nil {
			f.logger.Error("feed requery failed", zap.Error(err))
			return true
		}
		select {
		case out <- snapshot:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !emit() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if !relevant(evt.Kind) {
				continue
			}
			// Drain queued events so one requery covers a burst.
			for drained := false; !drained; {
				select {
				case _, ok := <-events:
					if !ok {
						drained = true
					}
				default:
					drained = true
				}
			}
			if !emit() {
				return
			}
		}
	}
}
