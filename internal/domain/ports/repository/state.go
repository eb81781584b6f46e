package repository

import (
	"context"

	"resume-ai-credits/internal/domain/model"
)

// UserStateRepository holds the current-state pointer plus signal snapshot
// per user, and the append-only transition audit log.
type UserStateRepository interface {
	Find(ctx context.Context, tx Tx, userID string) (*model.UserState, error)
	Save(ctx context.Context, tx Tx, st *model.UserState) error
	AppendTransition(ctx context.Context, tx Tx, rec *model.StateTransitionRecord) error
	ListTransitions(ctx context.Context, tx Tx, userID string, limit int) ([]*model.StateTransitionRecord, error)
}
