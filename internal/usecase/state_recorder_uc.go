package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"resume-ai-credits/internal/domain"
	"resume-ai-credits/internal/domain/model"
	"resume-ai-credits/internal/domain/ports/adapter"
	"resume-ai-credits/internal/domain/ports/repository"
	"resume-ai-credits/internal/infra/metrics"
)

// Compile-time check
var _ StateRecorderUseCase = (*stateRecorderUC)(nil)

// StateRecorderUseCase is the single path by which lifecycle state changes
// reach storage. Every component that mutates account data reports a signal
// patch here; a transition row is appended only when the resolved label
// actually changed.
type StateRecorderUseCase interface {
	// RecordTransition merges patch onto the last known snapshot, resolves,
	// and persists a transition on change. Returns nil when the label did not
	// change (no audit row is written in that case).
	RecordTransition(ctx context.Context, userID string, patch model.StateSignalPatch, event string, metadata map[string]interface{}) (*model.StateTransitionRecord, error)
	CurrentState(ctx context.Context, userID string) (*model.UserState, error)
	RecentTransitions(ctx context.Context, userID string, limit int) ([]*model.StateTransitionRecord, error)
}

type stateRecorderUC struct {
	states   repository.UserStateRepository
	tm       repository.TransactionManager
	notifier adapter.Notifier
	log      *zerolog.Logger
}

func NewStateRecorderUseCase(states repository.UserStateRepository, tm repository.TransactionManager, notifier adapter.Notifier, logger *zerolog.Logger) *stateRecorderUC {
	return &stateRecorderUC{states: states, tm: tm, notifier: notifier, log: logger}
}

func (u *stateRecorderUC) RecordTransition(ctx context.Context, userID string, patch model.StateSignalPatch, event string, metadata map[string]interface{}) (*model.StateTransitionRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var rec *model.StateTransitionRecord
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		st, err := u.states.Find(ctx, tx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			st = &model.UserState{UserID: userID}
		} else if err != nil {
			return err
		}

		st.Signals = patch.ApplyTo(st.Signals)
		label := model.ResolveState(st.Signals)
		st.UpdatedAt = time.Now()

		if label == st.CurrentState {
			// Same label: refresh the snapshot, keep the audit log quiet.
			return u.states.Save(ctx, tx, st)
		}

		rec = model.NewStateTransitionRecord(userID, st.CurrentState, label, event, metadata)
		st.CurrentState = label
		if err := u.states.Save(ctx, tx, st); err != nil {
			return err
		}
		return u.states.AppendTransition(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	metrics.IncStateTransition(rec.ToState)
	u.log.Info().
		Str("user_id", userID).
		Str("from", rec.FromState).
		Str("to", rec.ToState).
		Str("event", event).
		Msg("user state transition")

	if u.notifier != nil {
		if nerr := u.notifier.NotifyStateChange(ctx, userID, rec.FromState, rec.ToState, event); nerr != nil {
			u.log.Warn().Err(nerr).Str("user_id", userID).Msg("state change notification failed")
		}
	}
	return rec, nil
}

func (u *stateRecorderUC) CurrentState(ctx context.Context, userID string) (*model.UserState, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	st, err := u.states.Find(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		// Never classified yet: resolve the zero bundle so callers always get
		// a label.
		return &model.UserState{UserID: userID, CurrentState: model.ResolveState(model.StateSignals{})}, nil
	}
	return st, err
}

func (u *stateRecorderUC) RecentTransitions(ctx context.Context, userID string, limit int) ([]*model.StateTransitionRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if limit <= 0 {
		limit = 20
	}
	return u.states.ListTransitions(ctx, repository.NoTX, userID, limit)
}
