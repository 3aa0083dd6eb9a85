package ingest

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// The same physical SMS can arrive through two delivery channels at
// once, so ingestion claims a key derived from (address, timestamp)
// before any work: first claim wins, later claims are dropped.

var dedupNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("smsguard.ingest"))

func dedupKey(address string, timestamp int64) uuid.UUID {
	return uuid.NewSHA1(dedupNamespace, fmt.Appendf(nil, "%s|%d", address, timestamp))
}

type dedupWindow struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[uuid.UUID]time.Time
}

func newDedupWindow(ttl time.Duration) *dedupWindow {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &dedupWindow{ttl: ttl, seen: make(map[uuid.UUID]time.Time)}
}

// claim returns false when the key is already held. On success it
// returns a release function that forgets the claim, so a failed
// resolution can be retried by upstream redelivery.
func (w *dedupWindow) claim(address string, timestamp int64) (func(), bool) {
	key := dedupKey(address, timestamp)
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	for k, at := range w.seen {
		if now.Sub(at) > w.ttl {
			delete(w.seen, k)
		}
	}

	if _, dup := w.seen[key]; dup {
		return nil, false
	}
	w.seen[key] = now

	return func() {
		w.mu.Lock()
		delete(w.seen, key)
		w.mu.Unlock()
	}, true
}
