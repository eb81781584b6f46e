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
var _ FreePlanUseCase = (*freePlanUC)(nil)

type FreePlanClaimResult struct {
	UserID          string
	CoinAdded       int64
	Coin            int64
	HasUsedFreePlan bool
	PlanStatus      model.PlanStatus
}

// FreePlanUseCase grants the catalog free package exactly once per account.
type FreePlanUseCase interface {
	Claim(ctx context.Context, userID string) (*FreePlanClaimResult, error)
}

type freePlanUC struct {
	accounts repository.AccountRepository
	packages repository.CoinPackageRepository
	ledger   LedgerUseCase
	recorder StateRecorderUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewFreePlanUseCase(accounts repository.AccountRepository, packages repository.CoinPackageRepository, ledger LedgerUseCase, recorder StateRecorderUseCase, tm repository.TransactionManager, logger *zerolog.Logger) *freePlanUC {
	return &freePlanUC{accounts: accounts, packages: packages, ledger: ledger, recorder: recorder, tm: tm, log: logger}
}

// Claim runs as one transaction: row-lock the account, check the one-time
// flag, resolve the free package, credit, flip flags. The row lock is what
// makes exactly one of any concurrent set of claims win.
func (u *freePlanUC) Claim(ctx context.Context, userID string) (*FreePlanClaimResult, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	res := &FreePlanClaimResult{UserID: userID}
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		acc, err := u.accounts.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if acc.HasUsedFreePlan {
			return domain.ErrFreePlanClaimed
		}

		pkg, err := u.packages.FindFreePackage(ctx, tx)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrFreePlanMisconfigured
		} else if err != nil {
			return err
		}

		acc.HasUsedFreePlan = true
		acc.PlanStatus = model.PlanStatusFree
		if err := u.ledger.CreditTx(ctx, tx, acc, pkg.CoinAmount, "free_plan_claim"); err != nil {
			return err
		}

		res.CoinAdded = pkg.CoinAmount
		res.Coin = acc.CoinBalance
		res.HasUsedFreePlan = acc.HasUsedFreePlan
		res.PlanStatus = acc.PlanStatus
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFreePlanClaimed):
			metrics.IncFreePlanClaim("already_claimed")
		case errors.Is(err, domain.ErrFreePlanMisconfigured):
			metrics.IncFreePlanClaim("misconfigured")
			u.log.Error().Msg("free plan claim failed: no free package in catalog")
		}
		return nil, err
	}

	metrics.IncFreePlanClaim("granted")
	u.log.Info().Str("user_id", userID).Int64("coin_added", res.CoinAdded).Msg("free plan claimed")

	if u.recorder != nil {
		status := model.PlanStatusFree
		credits := res.Coin
		patch := model.StateSignalPatch{PlanStatus: &status, Credits: &credits}
		if _, rerr := u.recorder.RecordTransition(ctx, userID, patch, "free_plan_claimed", nil); rerr != nil {
			u.log.Warn().Err(rerr).Str("user_id", userID).Msg("state recording after claim failed")
		}
	}
	return res, nil
}
