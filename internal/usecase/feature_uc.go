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
var _ FeatureUseCase = (*featureUC)(nil)

// FeatureUseCase gates paid features. The first Enable of a key debits its
// catalog cost through the ledger; the unlock is permanent, so disabling and
// re-enabling later never debits again.
type FeatureUseCase interface {
	Enable(ctx context.Context, userID, featureKey string) (*model.FeatureAccess, error)
	Disable(ctx context.Context, userID, featureKey string) (*model.FeatureAccess, error)
	Access(ctx context.Context, userID string) (*model.FeatureAccess, error)
}

type featureUC struct {
	access   repository.FeatureAccessRepository
	catalog  repository.FeatureCatalogRepository
	accounts repository.AccountRepository
	ledger   LedgerUseCase
	recorder StateRecorderUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewFeatureUseCase(access repository.FeatureAccessRepository, catalog repository.FeatureCatalogRepository, accounts repository.AccountRepository, ledger LedgerUseCase, recorder StateRecorderUseCase, tm repository.TransactionManager, logger *zerolog.Logger) *featureUC {
	return &featureUC{access: access, catalog: catalog, accounts: accounts, ledger: ledger, recorder: recorder, tm: tm, log: logger}
}

func (u *featureUC) Enable(ctx context.Context, userID, featureKey string) (*model.FeatureAccess, error) {
	if userID == "" || featureKey == "" {
		return nil, domain.ErrInvalidArgument
	}

	var out *model.FeatureAccess
	var remaining int64
	debited := false
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// The feature_access row may not exist yet, so its own row lock
		// cannot serialize two first unlocks of the same key. The account
		// row lock does: take it before reading the key sets.
		if _, err := u.accounts.FindByID(ctx, tx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		fa, err := u.access.Find(ctx, tx, userID)
		if err != nil {
			return err
		}

		if !fa.IsUnlocked(featureKey) {
			cost, err := u.catalog.FindByKey(ctx, tx, featureKey)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrUnknownFeature
			} else if err != nil {
				return err
			}
			if cost.CoinCost > 0 {
				// The debit shares this transaction: if it fails, the key
				// sets stay untouched.
				remaining, err = u.ledger.DebitTx(ctx, tx, userID, cost.CoinCost, "feature_unlock:"+featureKey)
				if err != nil {
					return err
				}
				debited = true
			}
			fa.Unlock(featureKey)
		} else {
			fa.Enable(featureKey)
		}
		out = fa
		return u.access.Save(ctx, tx, fa)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			metrics.IncFeatureToggle(featureKey, "blocked")
			// The user hit a paywall; that is itself a lifecycle signal.
			if u.recorder != nil {
				blocked := true
				patch := model.StateSignalPatch{FeatureBlocked: &blocked}
				if _, rerr := u.recorder.RecordTransition(ctx, userID, patch, "feature_blocked", map[string]interface{}{"feature": featureKey}); rerr != nil {
					u.log.Warn().Err(rerr).Str("user_id", userID).Msg("state recording after blocked unlock failed")
				}
			}
		}
		return nil, err
	}

	if debited {
		metrics.IncFeatureToggle(featureKey, "unlock")
		u.log.Info().Str("user_id", userID).Str("feature", featureKey).Int64("remaining", remaining).Msg("feature unlocked")
		if u.recorder != nil {
			blocked := false
			patch := model.StateSignalPatch{Credits: &remaining, FeatureBlocked: &blocked}
			if _, rerr := u.recorder.RecordTransition(ctx, userID, patch, "feature_unlocked", map[string]interface{}{"feature": featureKey}); rerr != nil {
				u.log.Warn().Err(rerr).Str("user_id", userID).Msg("state recording after unlock failed")
			}
		}
	} else {
		metrics.IncFeatureToggle(featureKey, "enable")
	}
	return out, nil
}

func (u *featureUC) Disable(ctx context.Context, userID, featureKey string) (*model.FeatureAccess, error) {
	if userID == "" || featureKey == "" {
		return nil, domain.ErrInvalidArgument
	}

	var out *model.FeatureAccess
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		fa, err := u.access.Find(ctx, tx, userID)
		if err != nil {
			return err
		}
		fa.Disable(featureKey)
		out = fa
		return u.access.Save(ctx, tx, fa)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncFeatureToggle(featureKey, "disable")
	return out, nil
}

func (u *featureUC) Access(ctx context.Context, userID string) (*model.FeatureAccess, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.access.Find(ctx, repository.NoTX, userID)
}
