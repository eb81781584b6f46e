package model

import "time"

const (
	WebhookPaymentSucceeded = "payment_success"
	WebhookPaymentFailed    = "payment_failed"
)

// WebhookEvent is the already-parsed payload of a provider webhook delivery.
// Provider protocol details (signatures excepted) are handled upstream.
type WebhookEvent struct {
	EventID      string // optional idempotency key
	Type         string
	CustomerID   string
	Amount       int64 // optional credit amount on success
	PlanID       string
	ErrorCode    string
	ErrorMessage string
}

// WebhookEventRecord is the durable idempotency set: one row per processed
// event id, claimed atomically via the unique constraint.
type WebhookEventRecord struct {
	EventID     string
	ProcessedAt time.Time
}

type WebhookResult struct {
	Received  bool
	Duplicate bool
}
