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

var _ repository.AccountRepository = (*accountRepo)(nil)

type accountRepo struct{ pool *pgxpool.Pool }

func NewAccountRepo(pool *pgxpool.Pool) *accountRepo {
	return &accountRepo{pool: pool}
}

const accountColumns = `user_id, email, coin_balance, has_used_free_plan, plan_status, payment_failed, just_converted, last_payment_at, created_at, updated_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	a := &model.Account{}
	if err := row.Scan(&a.UserID, &a.Email, &a.CoinBalance, &a.HasUsedFreePlan, &a.PlanStatus, &a.PaymentFailed, &a.JustConverted, &a.LastPaymentAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return a, nil
}

// FindByID locks the row when called inside a transaction. All mutating use
// cases go through that path, which serializes work per account while leaving
// other accounts untouched.
func (r *accountRepo) FindByID(ctx context.Context, tx repository.Tx, userID string) (*model.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", userID)
	if err != nil {
		return nil, err
	}
	return scanAccount(row)
}

func (r *accountRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE email=$1 LIMIT 1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", email)
	if err != nil {
		return nil, err
	}
	return scanAccount(row)
}

func (r *accountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	const q = `
INSERT INTO accounts (user_id, email, coin_balance, has_used_free_plan, plan_status, payment_failed, just_converted, last_payment_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
ON CONFLICT (user_id) DO UPDATE SET
  email=$2, coin_balance=$3, has_used_free_plan=$4, plan_status=$5, payment_failed=$6, just_converted=$7, last_payment_at=$8, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q, a.UserID, a.Email, a.CoinBalance, a.HasUsedFreePlan, a.PlanStatus, a.PaymentFailed, a.JustConverted, a.LastPaymentAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
