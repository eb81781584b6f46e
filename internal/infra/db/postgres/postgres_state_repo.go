package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"resume-ai-credits/internal/domain"
	"resume-ai-credits/internal/domain/model"
	"resume-ai-credits/internal/domain/ports/repository"
)

var _ repository.UserStateRepository = (*userStateRepo)(nil)

type userStateRepo struct{ pool *pgxpool.Pool }

func NewUserStateRepo(pool *pgxpool.Pool) *userStateRepo {
	return &userStateRepo{pool: pool}
}

func (r *userStateRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.UserState, error) {
	q := `SELECT user_id, current_state, signals, updated_at FROM user_states WHERE user_id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", userID)
	if err != nil {
		return nil, err
	}

	st := &model.UserState{}
	var rawSignals []byte
	if err := row.Scan(&st.UserID, &st.CurrentState, &rawSignals, &st.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(rawSignals) > 0 {
		if err := json.Unmarshal(rawSignals, &st.Signals); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return st, nil
}

func (r *userStateRepo) Save(ctx context.Context, tx repository.Tx, st *model.UserState) error {
	rawSignals, err := json.Marshal(st.Signals)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO user_states (user_id, current_state, signals, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (user_id) DO UPDATE SET current_state=$2, signals=$3, updated_at=NOW();`

	if _, err := execSQL(ctx, r.pool, tx, q, st.UserID, st.CurrentState, rawSignals); err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userStateRepo) AppendTransition(ctx context.Context, tx repository.Tx, rec *model.StateTransitionRecord) error {
	const q = `
INSERT INTO state_transitions (id, user_id, from_state, to_state, event, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`

	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.UserID, rec.FromState, rec.ToState, rec.Event, rec.Metadata, rec.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userStateRepo) ListTransitions(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.StateTransitionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT id, user_id, from_state, to_state, event, metadata, created_at FROM state_transitions WHERE user_id=$1 ORDER BY id DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.StateTransitionRecord
	for rows.Next() {
		rec := new(model.StateTransitionRecord)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.FromState, &rec.ToState, &rec.Event, &rec.Metadata, &rec.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rec)
	}
	return out, nil
}
