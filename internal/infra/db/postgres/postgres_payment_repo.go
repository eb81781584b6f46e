package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"resume-ai-credits/internal/domain"
	"resume-ai-credits/internal/domain/model"
	"resume-ai-credits/internal/domain/ports/repository"
)

var _ repository.PaymentTransactionRepository = (*paymentRepo)(nil)
var _ repository.WebhookEventRepository = (*webhookEventRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `order_id, user_id, plan_id, status, purchased_coin_amount, contact_email, created_at, updated_at, paid_at`

func scanPayment(row pgx.Row) (*model.PaymentTransaction, error) {
	p := &model.PaymentTransaction{}
	if err := row.Scan(&p.OrderID, &p.UserID, &p.PlanID, &p.Status, &p.PurchasedCoinAmount, &p.ContactEmail, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentTransaction) error {
	const q = `
INSERT INTO payment_transactions (order_id, user_id, plan_id, status, purchased_coin_amount, contact_email, created_at, updated_at, paid_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW(),$7)
ON CONFLICT (order_id) DO UPDATE SET
  user_id=$2, plan_id=$3, status=$4, purchased_coin_amount=$5, contact_email=$6, updated_at=NOW(), paid_at=$7;`

	_, err := execSQL(ctx, r.pool, tx, q, p.OrderID, p.UserID, p.PlanID, p.Status, p.PurchasedCoinAmount, p.ContactEmail, p.PaidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// FindByOrderID locks the row inside a tx so the success-at-most-once guard
// in reconciliation cannot race a concurrent replay of the same return URL.
func (r *paymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentTransaction, error) {
	q := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE order_id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", orderID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PaymentTransaction
	for rows.Next() {
		p := new(model.PaymentTransaction)
		if err := rows.Scan(&p.OrderID, &p.UserID, &p.PlanID, &p.Status, &p.PurchasedCoinAmount, &p.ContactEmail, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}

type webhookEventRepo struct{ pool *pgxpool.Pool }

func NewWebhookEventRepo(pool *pgxpool.Pool) *webhookEventRepo {
	return &webhookEventRepo{pool: pool}
}

// MarkProcessed claims the event id through the primary-key constraint: the
// check and the insert are one statement, so two concurrent deliveries of
// the same event cannot both pass.
func (r *webhookEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, eventID string, at time.Time) (bool, error) {
	const q = `INSERT INTO webhook_events (event_id, processed_at) VALUES ($1,$2) ON CONFLICT (event_id) DO NOTHING;`
	cmd, err := execSQL(ctx, r.pool, tx, q, eventID, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}
