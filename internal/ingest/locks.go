package ingest

import "sync"

// threadLocks serializes writes per thread id. Ingestion for different
// threads proceeds in parallel; two messages for one thread never
// interleave their conversation upsert and message insert.
type threadLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func newThreadLocks() *threadLocks {
	return &threadLocks{m: make(map[int64]*sync.Mutex)}
}

func (l *threadLocks) lock(threadID int64) func() {
	l.mu.Lock()
	m, ok := l.m[threadID]
	if !ok {
		m = &sync.Mutex{}
		l.m[threadID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
