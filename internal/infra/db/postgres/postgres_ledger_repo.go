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

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

// ledgerRepo is append-only by construction: there is no UPDATE or DELETE
// statement in this file.
type ledgerRepo struct{ pool *pgxpool.Pool }

func NewLedgerRepo(pool *pgxpool.Pool) *ledgerRepo {
	return &ledgerRepo{pool: pool}
}

func (r *ledgerRepo) Append(ctx context.Context, tx repository.Tx, ev *model.LedgerEvent) error {
	const q = `
INSERT INTO ledger_events (id, user_id, kind, amount, reason, balance_before, balance_after, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`

	_, err := execSQL(ctx, r.pool, tx, q, ev.ID, ev.UserID, ev.Kind, ev.Amount, ev.Reason, ev.BalanceBefore, ev.BalanceAfter, ev.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *ledgerRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.LedgerEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	// ULID ids sort by creation time, so ordering by id is ordering by time.
	const q = `SELECT id, user_id, kind, amount, reason, balance_before, balance_after, created_at FROM ledger_events WHERE user_id=$1 ORDER BY id DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.LedgerEvent
	for rows.Next() {
		ev := new(model.LedgerEvent)
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Kind, &ev.Amount, &ev.Reason, &ev.BalanceBefore, &ev.BalanceAfter, &ev.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, ev)
	}
	return out, nil
}
