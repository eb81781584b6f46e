package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"resume-ai-credits/internal/domain"
	"resume-ai-credits/internal/domain/model"
	"resume-ai-credits/internal/domain/ports/repository"
	"resume-ai-credits/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookUseCase ingests already-parsed payment provider events exactly once
// and reconciles provider return redirects against stored transactions.
type WebhookUseCase interface {
	HandleEvent(ctx context.Context, ev *model.WebhookEvent) (*model.WebhookResult, error)
	// Reconcile matches a provider redirect to a stored PaymentTransaction by
	// orderID. callerUserID is the authenticated caller, used as owner
	// fallback when the transaction carries no user.
	Reconcile(ctx context.Context, orderID, callerUserID, providerStatus string) (*model.PaymentTransaction, error)
}

type webhookUC struct {
	accounts repository.AccountRepository
	payments repository.PaymentTransactionRepository
	seen     repository.WebhookEventRepository
	ledger   LedgerUseCase
	recorder StateRecorderUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewWebhookUseCase(accounts repository.AccountRepository, payments repository.PaymentTransactionRepository, seen repository.WebhookEventRepository, ledger LedgerUseCase, recorder StateRecorderUseCase, tm repository.TransactionManager, logger *zerolog.Logger) *webhookUC {
	return &webhookUC{accounts: accounts, payments: payments, seen: seen, ledger: ledger, recorder: recorder, tm: tm, log: logger}
}

func (u *webhookUC) HandleEvent(ctx context.Context, ev *model.WebhookEvent) (*model.WebhookResult, error) {
	if ev == nil || ev.Type == "" || ev.CustomerID == "" {
		return nil, domain.ErrInvalidArgument
	}

	switch ev.Type {
	case model.WebhookPaymentSucceeded, model.WebhookPaymentFailed:
	default:
		// Forward-compatible: unknown event types are acknowledged, not failed.
		u.log.Debug().Str("type", ev.Type).Msg("ignoring unknown webhook event type")
		metrics.IncWebhookEvent(ev.Type, "ignored")
		return &model.WebhookResult{Received: true}, nil
	}

	res := &model.WebhookResult{Received: true}
	var balanceAfter int64
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// The idempotency claim shares the transaction with the account
		// mutation: if anything below fails, the claim rolls back too and a
		// redelivery can retry cleanly.
		if ev.EventID != "" {
			fresh, err := u.seen.MarkProcessed(ctx, tx, ev.EventID, time.Now())
			if err != nil {
				return err
			}
			if !fresh {
				res.Duplicate = true
				return nil
			}
		}

		acc, err := u.accounts.FindByID(ctx, tx, ev.CustomerID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrAccountNotFound
		} else if err != nil {
			return err
		}

		switch ev.Type {
		case model.WebhookPaymentSucceeded:
			now := time.Now()
			acc.PlanStatus = model.PlanStatusPaid
			acc.PaymentFailed = false
			acc.JustConverted = true
			acc.LastPaymentAt = &now
			if ev.Amount > 0 {
				if err := u.ledger.CreditTx(ctx, tx, acc, ev.Amount, "payment_webhook"); err != nil {
					return err
				}
			} else if err := u.accounts.Save(ctx, tx, acc); err != nil {
				return err
			}
		case model.WebhookPaymentFailed:
			acc.PlanStatus = model.PlanStatusFailed
			acc.PaymentFailed = true
			if err := u.accounts.Save(ctx, tx, acc); err != nil {
				return err
			}
		}
		balanceAfter = acc.CoinBalance
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Duplicate {
		// Idempotent no-op, not an error.
		u.log.Info().Str("event_id", ev.EventID).Str("type", ev.Type).Msg("duplicate webhook delivery ignored")
		metrics.IncWebhookEvent(ev.Type, "duplicate")
		return res, nil
	}
	metrics.IncWebhookEvent(ev.Type, "processed")

	if u.recorder != nil {
		u.recordAfterEvent(ctx, ev, balanceAfter)
	}
	return res, nil
}

func (u *webhookUC) recordAfterEvent(ctx context.Context, ev *model.WebhookEvent, balanceAfter int64) {
	var patch model.StateSignalPatch
	var event string
	metadata := map[string]interface{}{}
	if ev.EventID != "" {
		metadata["event_id"] = ev.EventID
	}

	switch ev.Type {
	case model.WebhookPaymentSucceeded:
		status := model.PlanStatusPaid
		failed := false
		converted := true
		patch = model.StateSignalPatch{
			PlanStatus:    &status,
			PaymentFailed: &failed,
			JustConverted: &converted,
			Credits:       &balanceAfter,
		}
		event = "payment_succeeded"
	case model.WebhookPaymentFailed:
		status := model.PlanStatusFailed
		failed := true
		patch = model.StateSignalPatch{PlanStatus: &status, PaymentFailed: &failed}
		event = "payment_failed"
		metadata["error_code"] = ev.ErrorCode
		metadata["error_message"] = ev.ErrorMessage
	}

	if _, err := u.recorder.RecordTransition(ctx, ev.CustomerID, patch, event, metadata); err != nil {
		u.log.Warn().Err(err).Str("user_id", ev.CustomerID).Msg("state recording after webhook failed")
	}
}

// finalStatus maps the provider's redirect status onto our enum.
func finalStatus(providerStatus string) model.PaymentStatus {
	switch providerStatus {
	case "success", "settlement", "OK":
		return model.PaymentStatusSuccess
	case "cancel", "cancelled":
		return model.PaymentStatusCancelled
	default:
		return model.PaymentStatusFailed
	}
}

func (u *webhookUC) Reconcile(ctx context.Context, orderID, callerUserID, providerStatus string) (*model.PaymentTransaction, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var txn *model.PaymentTransaction
	var ownerID string
	var balanceAfter int64
	credited := false
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByOrderID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		txn = p

		// Resolve the owning user: stored association first, then the
		// authenticated caller, then the stored contact as last resort.
		ownerID = p.UserID
		if ownerID == "" {
			ownerID = callerUserID
		}
		if ownerID == "" && p.ContactEmail != "" {
			if acc, ferr := u.accounts.FindByEmail(ctx, tx, p.ContactEmail); ferr == nil {
				ownerID = acc.UserID
			}
		}

		status := finalStatus(providerStatus)
		// The row lock plus this stored-status check make the coin effect
		// apply at most once per order, no matter how often the user replays
		// the return URL.
		alreadyApplied := p.Status == model.PaymentStatusSuccess

		if status == model.PaymentStatusSuccess && !alreadyApplied && ownerID != "" {
			acc, err := u.accounts.FindByID(ctx, tx, ownerID)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrAccountNotFound
			} else if err != nil {
				return err
			}
			now := time.Now()
			acc.PlanStatus = model.PlanStatusPaid
			acc.PaymentFailed = false
			acc.JustConverted = true
			acc.LastPaymentAt = &now
			if p.PurchasedCoinAmount > 0 {
				if err := u.ledger.CreditTx(ctx, tx, acc, p.PurchasedCoinAmount, "payment_return"); err != nil {
					return err
				}
			} else if err := u.accounts.Save(ctx, tx, acc); err != nil {
				return err
			}
			balanceAfter = acc.CoinBalance
			credited = true
			p.UserID = ownerID
		}

		// The final status is persisted regardless of whether crediting
		// occurred.
		if !alreadyApplied {
			p.Status = status
			if status == model.PaymentStatusSuccess {
				now := time.Now()
				p.PaidAt = &now
			}
		}
		p.UpdatedAt = time.Now()
		return u.payments.Save(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPaymentReconciled(string(txn.Status))
	if credited && u.recorder != nil {
		status := model.PlanStatusPaid
		failed := false
		converted := true
		patch := model.StateSignalPatch{
			PlanStatus:    &status,
			PaymentFailed: &failed,
			JustConverted: &converted,
			Credits:       &balanceAfter,
		}
		if _, rerr := u.recorder.RecordTransition(ctx, ownerID, patch, "payment_reconciled", map[string]interface{}{"order_id": orderID}); rerr != nil {
			u.log.Warn().Err(rerr).Str("user_id", ownerID).Msg("state recording after reconciliation failed")
		}
	}
	return txn, nil
}
