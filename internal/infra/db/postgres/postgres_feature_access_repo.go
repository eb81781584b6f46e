package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"resume-ai-credits/internal/domain"
	"resume-ai-credits/internal/domain/model"
	"resume-ai-credits/internal/domain/ports/repository"
)

var _ repository.FeatureAccessRepository = (*featureAccessRepo)(nil)
var _ repository.FeatureCatalogRepository = (*featureCatalogRepo)(nil)

type featureAccessRepo struct{ pool *pgxpool.Pool }

func NewFeatureAccessRepo(pool *pgxpool.Pool) *featureAccessRepo {
	return &featureAccessRepo{pool: pool}
}

// Find returns an empty row for users without one; enable/disable then
// upserts it. Missing access is not an error condition.
func (r *featureAccessRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.FeatureAccess, error) {
	q := `SELECT user_id, unlocked_keys, enabled_keys, updated_at FROM feature_access WHERE user_id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", userID)
	if err != nil {
		return nil, err
	}

	fa := &model.FeatureAccess{}
	if err := row.Scan(&fa.UserID, &fa.UnlockedKeys, &fa.EnabledKeys, &fa.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewFeatureAccess(userID), nil
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return fa, nil
}

func (r *featureAccessRepo) Save(ctx context.Context, tx repository.Tx, fa *model.FeatureAccess) error {
	const q = `
INSERT INTO feature_access (user_id, unlocked_keys, enabled_keys, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (user_id) DO UPDATE SET unlocked_keys=$2, enabled_keys=$3, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q, fa.UserID, fa.UnlockedKeys, fa.EnabledKeys)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

type featureCatalogRepo struct{ pool *pgxpool.Pool }

func NewFeatureCatalogRepo(pool *pgxpool.Pool) *featureCatalogRepo {
	return &featureCatalogRepo{pool: pool}
}

func (r *featureCatalogRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.FeatureCost, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT key, name, coin_cost FROM feature_catalog WHERE key=$1;`, key)
	if err != nil {
		return nil, err
	}
	c := &model.FeatureCost{}
	if err := row.Scan(&c.Key, &c.Name, &c.CoinCost); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

func (r *featureCatalogRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.FeatureCost, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT key, name, coin_cost FROM feature_catalog ORDER BY key;`)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.FeatureCost
	for rows.Next() {
		c := new(model.FeatureCost)
		if err := rows.Scan(&c.Key, &c.Name, &c.CoinCost); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *featureCatalogRepo) Save(ctx context.Context, tx repository.Tx, c *model.FeatureCost) error {
	const q = `
INSERT INTO feature_catalog (key, name, coin_cost)
VALUES ($1,$2,$3)
ON CONFLICT (key) DO UPDATE SET name=$2, coin_cost=$3;`

	_, err := execSQL(ctx, r.pool, tx, q, c.Key, c.Name, c.CoinCost)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
