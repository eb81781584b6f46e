package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"resume-ai-credits/internal/domain"
	"resume-ai-credits/internal/domain/model"
	"resume-ai-credits/internal/domain/ports/repository"
	"resume-ai-credits/internal/infra/metrics"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// ConsumeResult reports the outcome of a debit attempt. RemainingCredits is
// filled on failure too, so the caller can tell the user their balance.
type ConsumeResult struct {
	Success          bool
	RemainingCredits int64
}

// LedgerUseCase owns every movement of the coin balance. Debits are
// all-or-nothing inside one transaction; the account row lock serializes
// concurrent spends on the same user.
type LedgerUseCase interface {
	ConsumeCredit(ctx context.Context, userID string, amount int64, reason string) (*ConsumeResult, error)
	// GetBalance and HasEnoughCredits are advisory reads for UI pre-checks.
	// They are never the authority for whether a spend succeeds; only
	// ConsumeCredit's own atomic check is.
	GetBalance(ctx context.Context, userID string) (int64, error)
	HasEnoughCredits(ctx context.Context, userID string, amount int64) (bool, error)
	History(ctx context.Context, userID string, limit int) ([]*model.LedgerEvent, error)

	// CreditTx and DebitTx compose into a caller-owned transaction. They are
	// the only code paths that move a balance, so every mutation leaves a
	// ledger event. Payment credit is always additive through CreditTx.
	CreditTx(ctx context.Context, tx repository.Tx, acc *model.Account, amount int64, reason string) error
	DebitTx(ctx context.Context, tx repository.Tx, userID string, amount int64, reason string) (int64, error)
}

type ledgerUC struct {
	accounts repository.AccountRepository
	events   repository.LedgerRepository
	recorder StateRecorderUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewLedgerUseCase(accounts repository.AccountRepository, events repository.LedgerRepository, recorder StateRecorderUseCase, tm repository.TransactionManager, logger *zerolog.Logger) *ledgerUC {
	return &ledgerUC{accounts: accounts, events: events, recorder: recorder, tm: tm, log: logger}
}

func (u *ledgerUC) ConsumeCredit(ctx context.Context, userID string, amount int64, reason string) (*ConsumeResult, error) {
	if userID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	res := &ConsumeResult{}
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		remaining, err := u.DebitTx(ctx, tx, userID, amount, reason)
		res.RemainingCredits = remaining
		if err != nil {
			return err
		}
		res.Success = true
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			metrics.IncInsufficientCredits(reason)
			// res carries the current balance read under the row lock.
			return res, err
		}
		return nil, err
	}

	u.log.Debug().
		Str("user_id", userID).
		Int64("amount", amount).
		Str("reason", reason).
		Int64("remaining", res.RemainingCredits).
		Msg("credit consumed")

	if u.recorder != nil {
		remaining := res.RemainingCredits
		event := "credit_consumed"
		if remaining <= 0 {
			event = "credit_exhausted"
		}
		patch := model.StateSignalPatch{Credits: &remaining}
		if _, rerr := u.recorder.RecordTransition(ctx, userID, patch, event, map[string]interface{}{"reason": reason}); rerr != nil {
			u.log.Warn().Err(rerr).Str("user_id", userID).Msg("state recording after debit failed")
		}
	}
	return res, nil
}

func (u *ledgerUC) GetBalance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrInvalidArgument
	}
	acc, err := u.accounts.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return 0, err
	}
	return acc.CoinBalance, nil
}

func (u *ledgerUC) HasEnoughCredits(ctx context.Context, userID string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, domain.ErrInvalidArgument
	}
	balance, err := u.GetBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

func (u *ledgerUC) History(ctx context.Context, userID string, limit int) ([]*model.LedgerEvent, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if limit <= 0 {
		limit = 50
	}
	return u.events.ListByUser(ctx, repository.NoTX, userID, limit)
}

// CreditTx adds amount to an account already loaded (and row-locked) by the
// caller's transaction, and appends the matching ledger event.
func (u *ledgerUC) CreditTx(ctx context.Context, tx repository.Tx, acc *model.Account, amount int64, reason string) error {
	if acc.IsZero() || amount <= 0 {
		return domain.ErrInvalidArgument
	}
	before := acc.CoinBalance
	acc.CoinBalance += amount
	if err := u.accounts.Save(ctx, tx, acc); err != nil {
		return err
	}
	if err := u.events.Append(ctx, tx, model.NewLedgerEvent(acc.UserID, model.LedgerEventCredit, amount, reason, before, acc.CoinBalance)); err != nil {
		return err
	}
	metrics.IncLedgerEvent(string(model.LedgerEventCredit), reason)
	return nil
}

// DebitTx performs the atomic read-check-decrement under the caller's
// transaction. It returns the balance after the debit, or the untouched
// balance alongside ErrInsufficientCredits. No partial debit ever happens.
func (u *ledgerUC) DebitTx(ctx context.Context, tx repository.Tx, userID string, amount int64, reason string) (int64, error) {
	acc, err := u.accounts.FindByID(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	if acc.CoinBalance < amount {
		return acc.CoinBalance, domain.ErrInsufficientCredits
	}
	before := acc.CoinBalance
	acc.CoinBalance -= amount
	if err := u.accounts.Save(ctx, tx, acc); err != nil {
		return 0, err
	}
	if err := u.events.Append(ctx, tx, model.NewLedgerEvent(userID, model.LedgerEventDebit, amount, reason, before, acc.CoinBalance)); err != nil {
		return 0, err
	}
	metrics.IncLedgerEvent(string(model.LedgerEventDebit), reason)
	return acc.CoinBalance, nil
}
