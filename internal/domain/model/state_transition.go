package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// UserState is the per-user current-state pointer plus the last known signal
// snapshot that produced it.
type UserState struct {
	UserID       string
	CurrentState string
	Signals      StateSignals
	UpdatedAt    time.Time
}

// StateTransitionRecord is one append-only audit row. A row is written only
// when the resolved label actually changed, so the log reads cleanly.
type StateTransitionRecord struct {
	ID        string
	UserID    string
	FromState string
	ToState   string
	Event     string
	Metadata  map[string]interface{}
	CreatedAt time.Time
}

func NewStateTransitionRecord(userID, from, to, event string, metadata map[string]interface{}) *StateTransitionRecord {
	return &StateTransitionRecord{
		ID:        ulid.Make().String(),
		UserID:    userID,
		FromState: from,
		ToState:   to,
		Event:     event,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}
