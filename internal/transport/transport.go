// Package transport defines the outbound SMS boundary.
package transport

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Sender delivers one outbound message. Implementations may split long
// bodies into parts; that is invisible to callers.
type Sender interface {
	Send(ctx context.Context, address, body string) error
}

// SendError is the typed failure surfaced to send callers so they can
// offer a retry.
type SendError struct {
	Address string
	Code    string
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to %s failed (%s): %v", e.Address, e.Code, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Part sizes from the GSM 03.38 multipart convention: 160 septets for
// a single message, 153 per part once a concatenation header is needed.
const (
	SinglePartLen = 160
	MultiPartLen  = 153
)

// SplitBody divides a body into transport-sized parts. Bodies that fit
// one message come back whole.
func SplitBody(body string) []string {
	runes := []rune(body)
	if len(runes) <= SinglePartLen {
		return []string{body}
	}
	var parts []string
	for len(runes) > 0 {
		n := MultiPartLen
		if len(runes) < n {
			n = len(runes)
		}
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	return parts
}

// LogSender logs outbound messages instead of delivering them. It
// stands in for a real modem or gateway binding in dev deployments.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, address, body string) error {
	s.logger.Info("outbound message",
		zap.String("address", address),
		zap.Int("parts", len(SplitBody(body))),
		zap.Int("len", len(body)))
	return nil
}
