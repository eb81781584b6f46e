package repository

import (
	"context"

	"resume-ai-credits/internal/domain/model"
)

type FeatureAccessRepository interface {
	// Find returns an empty row (no error) for users without one yet.
	Find(ctx context.Context, tx Tx, userID string) (*model.FeatureAccess, error)
	Save(ctx context.Context, tx Tx, fa *model.FeatureAccess) error
}

// FeatureCatalogRepository prices feature unlocks.
type FeatureCatalogRepository interface {
	FindByKey(ctx context.Context, tx Tx, key string) (*model.FeatureCost, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.FeatureCost, error)
	Save(ctx context.Context, tx Tx, c *model.FeatureCost) error
}
