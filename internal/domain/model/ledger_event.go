package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type LedgerEventKind string

const (
	LedgerEventCredit LedgerEventKind = "credit"
	LedgerEventDebit  LedgerEventKind = "debit"
)

// LedgerEvent is one append-only row of the balance audit trail. Rows are
// never updated or deleted. IDs are ULIDs so the log sorts by creation time.
type LedgerEvent struct {
	ID            string
	UserID        string
	Kind          LedgerEventKind
	Amount        int64
	Reason        string
	BalanceBefore int64
	BalanceAfter  int64
	CreatedAt     time.Time
}

func NewLedgerEvent(userID string, kind LedgerEventKind, amount int64, reason string, before, after int64) *LedgerEvent {
	return &LedgerEvent{
		ID:            ulid.Make().String(),
		UserID:        userID,
		Kind:          kind,
		Amount:        amount,
		Reason:        reason,
		BalanceBefore: before,
		BalanceAfter:  after,
		CreatedAt:     time.Now(),
	}
}
