package repository

import (
	"context"

	"resume-ai-credits/internal/domain/model"
)

type CoinPackageRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.CoinPackage, error)
	// FindFreePackage resolves the zero-price free-tag row, ErrNotFound when
	// the catalog carries none.
	FindFreePackage(ctx context.Context, tx Tx) (*model.CoinPackage, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.CoinPackage, error)
	Save(ctx context.Context, tx Tx, p *model.CoinPackage) error
}
