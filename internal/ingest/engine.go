package ingest

import (
	"context"

	"go.uber.org/zap"

	"smsguard/internal/bus"
)

// Engine drains inbound delivery events off the bus into the pipeline.
// Each event is handled on its own goroutine; per-thread ordering is
// the pipeline's job, not the engine's.
type Engine struct {
	pipeline *Pipeline
	bus      *bus.Bus
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates an engine over the pipeline.
func NewEngine(p *Pipeline, b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{pipeline: p, bus: b, logger: logger.Named("engine")}
}

// Start subscribes to inbound events and processes them until Stop.
func (e *Engine) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})

	events, unsubscribe := e.bus.Subscribe("sms.", 256)
	go func() {
		defer close(e.done)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				e.handle(evt)
			}
		}
	}()
}

// Stop tears down the subscription and waits for the loop to exit.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
}

func (e *Engine) handle(evt bus.Event) {
	in, ok := evt.Payload.(*bus.Inbound)
	if !ok {
		e.logger.Warn("unexpected inbound payload", zap.String("kind", evt.Kind))
		return
	}
	go func() {
		if err := e.pipeline.Receive(in.Address, in.Body, in.Timestamp); err != nil {
			e.logger.Error("inbound ingestion failed",
				zap.String("address", in.Address), zap.Error(err))
		}
	}()
}
