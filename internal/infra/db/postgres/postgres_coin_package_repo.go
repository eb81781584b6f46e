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

var _ repository.CoinPackageRepository = (*coinPackageRepo)(nil)

type coinPackageRepo struct{ pool *pgxpool.Pool }

func NewCoinPackageRepo(pool *pgxpool.Pool) *coinPackageRepo {
	return &coinPackageRepo{pool: pool}
}

const packageColumns = `id, name, tag, price_amount, coin_amount, created_at`

func scanPackage(row pgx.Row) (*model.CoinPackage, error) {
	p := &model.CoinPackage{}
	if err := row.Scan(&p.ID, &p.Name, &p.Tag, &p.PriceAmount, &p.CoinAmount, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *coinPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CoinPackage, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+packageColumns+` FROM coin_packages WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanPackage(row)
}

func (r *coinPackageRepo) FindFreePackage(ctx context.Context, tx repository.Tx) (*model.CoinPackage, error) {
	const q = `SELECT ` + packageColumns + ` FROM coin_packages WHERE price_amount=0 AND tag=$1 ORDER BY created_at LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, model.FreePackageTag)
	if err != nil {
		return nil, err
	}
	return scanPackage(row)
}

func (r *coinPackageRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.CoinPackage, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+packageColumns+` FROM coin_packages ORDER BY price_amount;`)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.CoinPackage
	for rows.Next() {
		p := new(model.CoinPackage)
		if err := rows.Scan(&p.ID, &p.Name, &p.Tag, &p.PriceAmount, &p.CoinAmount, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *coinPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.CoinPackage) error {
	const q = `
INSERT INTO coin_packages (id, name, tag, price_amount, coin_amount, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (id) DO UPDATE SET name=$2, tag=$3, price_amount=$4, coin_amount=$5;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Tag, p.PriceAmount, p.CoinAmount)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
