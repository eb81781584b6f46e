package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // created; awaiting provider result
	PaymentStatusSuccess   PaymentStatus = "success"   // provider confirmed; coins applied at most once
	PaymentStatusFailed    PaymentStatus = "failed"    // provider rejected or verification failed
	PaymentStatusCancelled PaymentStatus = "cancelled" // user or admin cancel
)

// PaymentTransaction records one provider order. OrderID is unique; a
// transition into success may apply its coin effect at most once per order.
type PaymentTransaction struct {
	OrderID             string
	UserID              string
	PlanID              string
	Status              PaymentStatus
	PurchasedCoinAmount int64
	ContactEmail        string // fallback for resolving the owning account
	CreatedAt           time.Time
	UpdatedAt           time.Time
	PaidAt              *time.Time
}
