// Package block keeps the thread-scoped block list. Blocking is keyed
// by thread id, so it survives any reformatting of the sender address.
package block

import (
	"fmt"

	"go.uber.org/zap"

	"smsguard/internal/bus"
	"smsguard/internal/store"
)

// Registry manages blocked threads.
type Registry struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
}

// NewRegistry creates a block registry.
func NewRegistry(db *store.DB, b *bus.Bus, logger *zap.Logger) *Registry {
	return &Registry{db: db, bus: b, logger: logger}
}

// Block marks a thread as blocked. Re-blocking is a no-op on state.
func (r *Registry) Block(threadID int64, displayAddress, reason string) error {
	if err := r.db.BlockThread(threadID, displayAddress, reason); err != nil {
		return fmt.Errorf("block thread %d: %w", threadID, err)
	}
	r.logger.Info("thread blocked", zap.Int64("thread_id", threadID))
	r.bus.Emit(bus.KindBlockAdded, threadID)
	return nil
}

// Unblock removes a block. Unblocking an unblocked thread is a no-op.
func (r *Registry) Unblock(threadID int64) error {
	if err := r.db.UnblockThread(threadID); err != nil {
		return fmt.Errorf("unblock thread %d: %w", threadID, err)
	}
	r.logger.Info("thread unblocked", zap.Int64("thread_id", threadID))
	r.bus.Emit(bus.KindBlockRemoved, threadID)
	return nil
}

// IsBlocked reports whether the thread is blocked.
func (r *Registry) IsBlocked(threadID int64) (bool, error) {
	return r.db.IsThreadBlocked(threadID)
}

// List returns the blocked threads, most recently blocked first.
func (r *Registry) List() ([]store.BlockedThread, error) {
	return r.db.ListBlockedThreads()
}
