package repository

import (
	"context"
	"time"

	"resume-ai-credits/internal/domain/model"
)

// PaymentTransactionRepository owns provider orders. FindByOrderID takes a
// row lock inside a tx so the success-at-most-once guard is race-free.
type PaymentTransactionRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PaymentTransaction) error
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.PaymentTransaction, error)
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.PaymentTransaction, error)
}

// WebhookEventRepository is the durable idempotency set for webhook
// deliveries.
type WebhookEventRepository interface {
	// MarkProcessed claims eventID atomically (unique constraint underneath)
	// and reports false when it was already recorded. Check and insert are a
	// single step; a naive check-then-insert would let two concurrent
	// deliveries of one event both pass.
	MarkProcessed(ctx context.Context, tx Tx, eventID string, at time.Time) (bool, error)
}
