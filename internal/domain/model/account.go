package model

import "time"

type PlanStatus string

const (
	PlanStatusNone    PlanStatus = "none"
	PlanStatusFree    PlanStatus = "free"
	PlanStatusPaid    PlanStatus = "paid"
	PlanStatusFailed  PlanStatus = "failed"
	PlanStatusExpired PlanStatus = "expired"
)

// Account is the per-user billing row. CoinBalance is the single spendable
// balance; it never goes below zero. HasUsedFreePlan flips false->true exactly
// once and never back.
type Account struct {
	UserID          string
	Email           string
	CoinBalance     int64
	HasUsedFreePlan bool
	PlanStatus      PlanStatus
	PaymentFailed   bool
	JustConverted   bool
	LastPaymentAt   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a *Account) IsZero() bool { return a == nil || a.UserID == "" }

// CanSpend is advisory only; the authoritative check happens inside the
// ledger's own transaction, because the balance can change between a read
// and the actual debit.
func (a *Account) CanSpend(amount int64) bool { return a != nil && a.CoinBalance >= amount }
