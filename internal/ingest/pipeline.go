package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"smsguard/internal/bus"
	"smsguard/internal/classify"
	"smsguard/internal/identity"
	"smsguard/internal/notify"
	"smsguard/internal/risk"
	"smsguard/internal/store"
	"smsguard/internal/transport"
)

// Blocklist gates ingestion. *block.Registry satisfies it.
type Blocklist interface {
	IsBlocked(threadID int64) (bool, error)
}

// Pipeline is the single entry point for messages. Everything that
// lands in the store goes through Receive or Send here, so identity
// resolution, block gating, classification and the conversation
// summary stay consistent regardless of where a message came from.
type Pipeline struct {
	db         *store.DB
	resolver   identity.Resolver
	classifier *classify.Classifier
	analyzer   *risk.Analyzer
	reconciler *Reconciler
	blocks     Blocklist
	sink       notify.Sink
	sender     transport.Sender
	bus        *bus.Bus
	logger     *zap.Logger

	locks *threadLocks
	dedup *dedupWindow
}

// NewPipeline wires the pipeline.
func NewPipeline(db *store.DB, resolver identity.Resolver, classifier *classify.Classifier, analyzer *risk.Analyzer, reconciler *Reconciler, blocks Blocklist, sink notify.Sink, sender transport.Sender, b *bus.Bus, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		db:         db,
		resolver:   resolver,
		classifier: classifier,
		analyzer:   analyzer,
		reconciler: reconciler,
		blocks:     blocks,
		sink:       sink,
		sender:     sender,
		bus:        b,
		logger:     logger.Named("ingest"),
		locks:      newThreadLocks(),
		dedup:      newDedupWindow(0),
	}
}

// Receive ingests one inbound message: dedup, resolve, block gate,
// classify, persist, notify. Persistence failure after a successful
// resolve is absorbed: the message is logged and dropped, the caller
// still sees success and no notification fires.
func (p *Pipeline) Receive(address, body string, timestamp int64) error {
	release, ok := p.dedup.claim(address, timestamp)
	if !ok {
		p.logger.Debug("duplicate delivery dropped",
			zap.String("address", address), zap.Int64("timestamp", timestamp))
		return nil
	}

	threadID, err := p.resolver.Resolve(address)
	if err != nil {
		release()
		return fmt.Errorf("resolve %q: %w", address, err)
	}

	unlock := p.locks.lock(threadID)
	defer unlock()

	blocked, err := p.blocks.IsBlocked(threadID)
	if err != nil {
		release()
		return fmt.Errorf("block check: %w", err)
	}
	if blocked {
		p.logger.Info("inbound dropped for blocked thread", zap.Int64("thread_id", threadID))
		return nil
	}

	chatType, err := p.classifier.Classify(address)
	if err != nil {
		// Quarantine is the safe side when the contact check fails.
		p.logger.Warn("classification degraded to quarantine",
			zap.String("address", address), zap.Error(err))
		chatType = classify.Quarantine
	}

	msg := &store.Message{
		ThreadID:  threadID,
		Address:   address,
		Body:      body,
		Timestamp: timestamp,
		Direction: store.DirectionReceived,
		Status:    store.StatusReceived,
	}

	applied, err := p.persist(threadID, address, msg)
	if err != nil {
		p.logger.Error("inbound message dropped, persistence failed",
			zap.Int64("thread_id", threadID), zap.Error(err))
		return nil
	}

	p.bus.Emit(bus.KindMessageUpserted, applied.MessageID)
	p.bus.Emit(bus.KindConversationUpdated, threadID)

	if chatType == classify.Inbox {
		p.sink.NotifyInbox(applied.MessageID, applied.DisplayName, body, threadID)
		return nil
	}

	if factors, err := p.analyzer.AnalyzeMessage(address, body); err != nil {
		p.logger.Warn("risk analysis incomplete", zap.Error(err))
	} else if len(factors) > 0 {
		p.logger.Info("quarantined message risk factors",
			zap.Int64("message_id", applied.MessageID),
			zap.Strings("factors", risk.Labels(factors)))
	}

	quarantineNotify, err := p.db.GetBoolSetting(store.SettingQuarantineNotifications, true)
	if err != nil {
		p.logger.Warn("quarantine notification setting unreadable", zap.Error(err))
		quarantineNotify = true
	}
	if quarantineNotify {
		p.sink.NotifyQuarantine(applied.MessageID, threadID)
	}
	return nil
}

// Send persists an outbound message as pending, hands it to the
// transport, and settles the status from the result. When ctx is done
// before the transport answers, the transport keeps running; the
// eventual result is applied in the background and the caller gets
// ctx.Err().
func (p *Pipeline) Send(ctx context.Context, threadID int64, address, body string) (int64, error) {
	msg := &store.Message{
		ThreadID:  threadID,
		Address:   address,
		Body:      body,
		Timestamp: time.Now().UnixMilli(),
		Direction: store.DirectionSent,
		Status:    store.StatusPending,
		IsRead:    true,
	}

	unlock := p.locks.lock(threadID)
	applied, err := p.persist(threadID, address, msg)
	unlock()
	if err != nil {
		return 0, fmt.Errorf("persist outbound: %w", err)
	}

	p.bus.Emit(bus.KindMessageUpserted, applied.MessageID)
	p.bus.Emit(bus.KindConversationUpdated, threadID)

	done := make(chan error, 1)
	go func() {
		done <- p.sender.Send(context.WithoutCancel(ctx), address, body)
	}()

	select {
	case err := <-done:
		return applied.MessageID, p.settleSend(applied.MessageID, address, err)
	case <-ctx.Done():
		go func() {
			err := <-done
			if serr := p.settleSend(applied.MessageID, address, err); serr != nil {
				p.logger.Error("abandoned send settle failed",
					zap.Int64("message_id", applied.MessageID), zap.Error(serr))
			}
		}()
		return applied.MessageID, ctx.Err()
	}
}

func (p *Pipeline) settleSend(messageID int64, address string, sendErr error) error {
	if sendErr == nil {
		if err := p.db.UpdateMessageStatus(messageID, store.StatusSent, ""); err != nil {
			return fmt.Errorf("mark sent: %w", err)
		}
		p.bus.Emit(bus.KindMessageUpserted, messageID)
		return nil
	}

	var serr *transport.SendError
	if !errors.As(sendErr, &serr) {
		serr = &transport.SendError{Address: address, Code: "transport", Err: sendErr}
	}
	if err := p.db.UpdateMessageStatus(messageID, store.StatusFailed, serr.Code); err != nil {
		p.logger.Error("mark failed", zap.Int64("message_id", messageID), zap.Error(err))
	}
	p.bus.Emit(bus.KindMessageUpserted, messageID)
	p.bus.Emit(bus.KindMessageSendFailed, messageID)
	return serr
}

// persist runs the reconcile+insert unit in one transaction.
func (p *Pipeline) persist(threadID int64, address string, msg *store.Message) (*Applied, error) {
	tx, err := p.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	applied, err := p.reconciler.Apply(tx, threadID, address, msg)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return applied, nil
}
