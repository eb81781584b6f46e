package repository

import (
	"context"

	"resume-ai-credits/internal/domain/model"
)

// AccountRepository owns the accounts table. FindByID takes a row lock when
// called with a live tx, which is how concurrent mutations on one account are
// serialized without blocking other accounts.
type AccountRepository interface {
	FindByID(ctx context.Context, tx Tx, userID string) (*model.Account, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.Account, error)
	Save(ctx context.Context, tx Tx, a *model.Account) error
}
