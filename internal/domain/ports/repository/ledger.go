package repository

import (
	"context"

	"resume-ai-credits/internal/domain/model"
)

// LedgerRepository is the append-only balance audit trail. No update or
// delete methods exist on purpose.
type LedgerRepository interface {
	Append(ctx context.Context, tx Tx, ev *model.LedgerEvent) error
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.LedgerEvent, error)
}
