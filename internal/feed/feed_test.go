package feed

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"smsguard/internal/bus"
	"smsguard/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	return db
}

func seedConversation(t *testing.T, db *store.DB, address string, at int64) int64 {
	t.Helper()
	threadID, err := db.ResolveThreadKey("e164:"+address, address)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`
		INSERT INTO conversations (thread_id, address, last_message_body, last_message_at)
		VALUES (?, ?, 'hi', ?)
		ON CONFLICT(thread_id) DO UPDATE SET last_message_at = excluded.last_message_at`,
		threadID, address, at)
	if err != nil {
		t.Fatal(err)
	}
	return threadID
}

func waitSnapshot[T any](t *testing.T, ch <-chan []T) []T {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatal("feed closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot")
		return nil
	}
}

func TestConversationsEmitsInitialSnapshot(t *testing.T) {
	db := testDB(t)
	seedConversation(t, db, "+14155552671", 100)
	f := New(db, bus.New(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snap := waitSnapshot(t, f.Conversations(ctx, nil))
	if len(snap) != 1 || snap[0].Address != "+14155552671" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestConversationsRequeriesOnCommit(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	f := New(db, b, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := f.Conversations(ctx, nil)
	if snap := waitSnapshot(t, ch); len(snap) != 0 {
		t.Fatalf("initial snapshot = %+v, want empty", snap)
	}

	threadID := seedConversation(t, db, "+14155552671", 100)
	b.Emit(bus.KindConversationUpdated, threadID)

	snap := waitSnapshot(t, ch)
	if len(snap) != 1 {
		t.Fatalf("snapshot after commit = %+v, want one row", snap)
	}
}

func TestConversationsIgnoresUnrelatedEvents(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	f := New(db, b, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := f.Conversations(ctx, nil)
	waitSnapshot(t, ch)

	b.Emit(bus.KindNotifyInbox, nil)

	select {
	case snap := <-ch:
		t.Fatalf("unexpected snapshot %+v for unrelated event", snap)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMessagesStreamClosesOnCancel(t *testing.T) {
	db := testDB(t)
	threadID := seedConversation(t, db, "+14155552671", 100)
	f := New(db, bus.New(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	ch := f.Messages(ctx, threadID)
	waitSnapshot(t, ch)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			// A snapshot may already be buffered; the close follows.
			if _, ok := <-ch; ok {
				t.Fatal("feed still open after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not close")
	}
}
