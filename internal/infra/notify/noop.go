package notify

import (
	"context"

	"resume-ai-credits/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier is used when no ops channel is configured (dev, tests).
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (*NoopNotifier) NotifyStateChange(context.Context, string, string, string, string) error {
	return nil
}
