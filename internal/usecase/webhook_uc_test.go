//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"resume-ai-credits/internal/domain"
	"resume-ai-credits/internal/domain/model"
	"resume-ai-credits/internal/usecase"
)

type webhookUCTestDeps struct {
	accounts *MockAccountRepo
	payments *MockPaymentRepo
	seen     *MockWebhookEventRepo
	events   *MockLedgerRepo
	states   *MockStateRepo
	tm       *MockTxManager
	recorder usecase.StateRecorderUseCase
	ledger   usecase.LedgerUseCase
}

func newWebhookUCDeps() *webhookUCTestDeps {
	deps := &webhookUCTestDeps{
		accounts: NewMockAccountRepo(),
		payments: NewMockPaymentRepo(),
		seen:     NewMockWebhookEventRepo(),
		events:   NewMockLedgerRepo(),
		states:   NewMockStateRepo(),
		tm:       NewMockTxManager(),
	}
	deps.recorder = usecase.NewStateRecorderUseCase(deps.states, deps.tm, nil, newTestLogger())
	deps.ledger = usecase.NewLedgerUseCase(deps.accounts, deps.events, deps.recorder, deps.tm, newTestLogger())
	return deps
}

func (d *webhookUCTestDeps) newUC() usecase.WebhookUseCase {
	return usecase.NewWebhookUseCase(d.accounts, d.payments, d.seen, d.ledger, d.recorder, d.tm, newTestLogger())
}

func TestWebhookUseCase_HandleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("payment_success flips plan flags and credits additively", func(t *testing.T) {
		deps := newWebhookUCDeps()
		deps.accounts.Save(ctx, nil, &model.Account{UserID: "user-1", CoinBalance: 7})
		uc := deps.newUC()

		res, err := uc.HandleEvent(ctx, &model.WebhookEvent{
			EventID:    "evt-1",
			Type:       model.WebhookPaymentSucceeded,
			CustomerID: "user-1",
			Amount:     100,
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !res.Received || res.Duplicate {
			t.Fatalf("unexpected result: %+v", res)
		}

		acc, _ := deps.accounts.FindByID(ctx, nil, "user-1")
		if acc.CoinBalance != 107 {
			t.Errorf("credit must be additive: expected 107, got %d", acc.CoinBalance)
		}
		if acc.PlanStatus != model.PlanStatusPaid || acc.PaymentFailed || !acc.JustConverted {
			t.Errorf("unexpected flags: %+v", acc)
		}
		if acc.LastPaymentAt == nil {
			t.Error("expected LastPaymentAt to be set")
		}

		evs := deps.events.EventsFor("user-1")
		if len(evs) != 1 || evs[0].Kind != model.LedgerEventCredit || evs[0].Amount != 100 {
			t.Fatalf("expected one credit event of 100, got %+v", evs)
		}
	})

	t.Run("payment_failed marks the account without touching the balance", func(t *testing.T) {
		deps := newWebhookUCDeps()
		deps.accounts.Save(ctx, nil, &model.Account{UserID: "user-1", CoinBalance: 7, PlanStatus: model.PlanStatusPaid})
		deps.states.Save(ctx, nil, &model.UserState{
			UserID:       "user-1",
			CurrentState: model.StatePaidActive,
			Signals:      model.StateSignals{IsVerified: true, PlanStatus: model.PlanStatusPaid, Credits: 7},
		})
		uc := deps.newUC()

		_, err := uc.HandleEvent(ctx, &model.WebhookEvent{
			EventID:      "evt-1",
			Type:         model.WebhookPaymentFailed,
			CustomerID:   "user-1",
			ErrorCode:    "card_declined",
			ErrorMessage: "insufficient funds",
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		acc, _ := deps.accounts.FindByID(ctx, nil, "user-1")
		if acc.PlanStatus != model.PlanStatusFailed || !acc.PaymentFailed {
			t.Errorf("unexpected flags: %+v", acc)
		}
		if acc.CoinBalance != 7 {
			t.Errorf("a failed payment must not move the balance, got %d", acc.CoinBalance)
		}

		// Failure details land in the transition metadata, not on the account.
		trs := deps.states.TransitionsFor("user-1")
		if len(trs) == 0 {
			t.Fatal("expected a state transition for the failed payment")
		}
		last := trs[len(trs)-1]
		if last.ToState != model.StatePaymentFailed {
			t.Errorf("expected transition to %q, got %q", model.StatePaymentFailed, last.ToState)
		}
		if last.Metadata["error_code"] != "card_declined" {
			t.Errorf("expected error_code in metadata, got %+v", last.Metadata)
		}
	})

	t.Run("a duplicate delivery has no effect", func(t *testing.T) {
		deps := newWebhookUCDeps()
		deps.accounts.Save(ctx, nil, &model.Account{UserID: "user-1"})
		uc := deps.newUC()

		ev := &model.WebhookEvent{EventID: "evt-1", Type: model.WebhookPaymentSucceeded, CustomerID: "user-1", Amount: 100}
		if _, err := uc.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("first delivery: %v", err)
		}
		res, err := uc.HandleEvent(ctx, ev)
		if err != nil {
			t.Fatalf("second delivery: %v", err)
		}
		if !res.Received || !res.Duplicate {
			t.Fatalf("expected an acknowledged duplicate, got %+v", res)
		}

		acc, _ := deps.accounts.FindByID(ctx, nil, "user-1")
		if acc.CoinBalance != 100 {
			t.Errorf("duplicate must not credit again, balance %d", acc.CoinBalance)
		}
		if got := len(deps.events.EventsFor("user-1")); got != 1 {
			t.Errorf("expected one ledger event, got %d", got)
		}
	})

	t.Run("an unknown event type is acknowledged and ignored", func(t *testing.T) {
		deps := newWebhookUCDeps()
		deps.accounts.Save(ctx, nil, &model.Account{UserID: "user-1", CoinBalance: 5, PlanStatus: model.PlanStatusNone})
		uc := deps.newUC()

		res, err := uc.HandleEvent(ctx, &model.WebhookEvent{EventID: "evt-1", Type: "subscription_renewed", CustomerID: "user-1"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !res.Received {
			t.Fatal("unknown types must still be acknowledged")
		}

		acc, _ := deps.accounts.FindByID(ctx, nil, "user-1")
		if acc.CoinBalance != 5 || acc.PlanStatus != model.PlanStatusNone {
			t.Errorf("unknown types must not mutate the account: %+v", acc)
		}
	})

	t.Run("missing required fields are rejected", func(t *testing.T) {
		deps := newWebhookUCDeps()
		uc := deps.newUC()

		for _, ev := range []*model.WebhookEvent{
			nil,
			{Type: model.WebhookPaymentSucceeded},
			{CustomerID: "user-1"},
		} {
			if _, err := uc.HandleEvent(ctx, ev); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument for %+v, got %v", ev, err)
			}
		}
	})

	t.Run("an unknown customer is reported, and the idempotency claim rolls back with it", func(t *testing.T) {
		deps := newWebhookUCDeps()
		uc := deps.newUC()

		ev := &model.WebhookEvent{EventID: "evt-1", Type: model.WebhookPaymentSucceeded, CustomerID: "ghost", Amount: 10}
		if _, err := uc.HandleEvent(ctx, ev); !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got: %v", err)
		}
	})
}

func TestWebhookUseCase_Reconcile(t *testing.T) {
	ctx := context.Background()

	pendingOrder := func() *model.PaymentTransaction {
		return &model.PaymentTransaction{
			OrderID:             "order-1",
			UserID:              "user-1",
			Status:              model.PaymentStatusPending,
			PurchasedCoinAmount: 200,
		}
	}

	t.Run("first successful return credits once and stores the status", func(t *testing.T) {
		deps := newWebhookUCDeps()
		deps.accounts.Save(ctx, nil, &model.Account{UserID: "user-1", CoinBalance: 10})
		deps.payments.Save(ctx, nil, pendingOrder())
		uc := deps.newUC()

		txn, err := uc.Reconcile(ctx, "order-1", "user-1", "success")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if txn.Status != model.PaymentStatusSuccess {
			t.Errorf("expected status success, got %s", txn.Status)
		}

		acc, _ := deps.accounts.FindByID(ctx, nil, "user-1")
		if acc.CoinBalance != 210 {
			t.Errorf("expected 210 coins after reconciliation, got %d", acc.CoinBalance)
		}

		stored, _ := deps.payments.FindByOrderID(ctx, nil, "order-1")
		if stored.Status != model.PaymentStatusSuccess || stored.PaidAt == nil {
			t.Errorf("expected a persisted success with PaidAt, got %+v", stored)
		}
	})

	t.Run("replaying the return URL never credits twice", func(t *testing.T) {
		deps := newWebhookUCDeps()
		deps.accounts.Save(ctx, nil, &model.Account{UserID: "user-1"})
		deps.payments.Save(ctx, nil, pendingOrder())
		uc := deps.newUC()

		for i := 0; i < 3; i++ {
			if _, err := uc.Reconcile(ctx, "order-1", "user-1", "success"); err != nil {
				t.Fatalf("replay %d: %v", i, err)
			}
		}

		acc, _ := deps.accounts.FindByID(ctx, nil, "user-1")
		if acc.CoinBalance != 200 {
			t.Errorf("expected a single credit of 200, got %d", acc.CoinBalance)
		}
		if got := len(deps.events.EventsFor("user-1")); got != 1 {
			t.Errorf("expected one ledger event, got %d", got)
		}
	})

	t.Run("a stored success is never downgraded by a later failed return", func(t *testing.T) {
		deps := newWebhookUCDeps()
		deps.accounts.Save(ctx, nil, &model.Account{UserID: "user-1"})
		deps.payments.Save(ctx, nil, pendingOrder())
		uc := deps.newUC()

		if _, err := uc.Reconcile(ctx, "order-1", "user-1", "success"); err != nil {
			t.Fatalf("success return: %v", err)
		}
		txn, err := uc.Reconcile(ctx, "order-1", "user-1", "failed")
		if err != nil {
			t.Fatalf("failed return: %v", err)
		}
		if txn.Status != model.PaymentStatusSuccess {
			t.Errorf("status must stay success, got %s", txn.Status)
		}
	})

	t.Run("a failed return persists without crediting", func(t *testing.T) {
		deps := newWebhookUCDeps()
		deps.accounts.Save(ctx, nil, &model.Account{UserID: "user-1"})
		deps.payments.Save(ctx, nil, pendingOrder())
		uc := deps.newUC()

		txn, err := uc.Reconcile(ctx, "order-1", "user-1", "error")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if txn.Status != model.PaymentStatusFailed {
			t.Errorf("expected status failed, got %s", txn.Status)
		}
		acc, _ := deps.accounts.FindByID(ctx, nil, "user-1")
		if acc.CoinBalance != 0 {
			t.Errorf("a failed return must not credit, got %d", acc.CoinBalance)
		}
	})

	t.Run("falls back to the authenticated caller when the order has no owner", func(t *testing.T) {
		deps := newWebhookUCDeps()
		deps.accounts.Save(ctx, nil, &model.Account{UserID: "user-2"})
		deps.payments.Save(ctx, nil, &model.PaymentTransaction{
			OrderID:             "order-1",
			Status:              model.PaymentStatusPending,
			PurchasedCoinAmount: 50,
		})
		uc := deps.newUC()

		if _, err := uc.Reconcile(ctx, "order-1", "user-2", "success"); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		acc, _ := deps.accounts.FindByID(ctx, nil, "user-2")
		if acc.CoinBalance != 50 {
			t.Errorf("expected the caller to receive the credit, got %d", acc.CoinBalance)
		}
		stored, _ := deps.payments.FindByOrderID(ctx, nil, "order-1")
		if stored.UserID != "user-2" {
			t.Errorf("expected the order to adopt the caller as owner, got %q", stored.UserID)
		}
	})

	t.Run("resolves the owner by contact email as last resort", func(t *testing.T) {
		deps := newWebhookUCDeps()
		deps.accounts.Save(ctx, nil, &model.Account{UserID: "user-3", Email: "jo@example.com"})
		deps.payments.Save(ctx, nil, &model.PaymentTransaction{
			OrderID:             "order-1",
			Status:              model.PaymentStatusPending,
			PurchasedCoinAmount: 50,
			ContactEmail:        "jo@example.com",
		})
		uc := deps.newUC()

		if _, err := uc.Reconcile(ctx, "order-1", "", "success"); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		acc, _ := deps.accounts.FindByID(ctx, nil, "user-3")
		if acc.CoinBalance != 50 {
			t.Errorf("expected the email-matched account to be credited, got %d", acc.CoinBalance)
		}
	})

	t.Run("an unknown order is an error", func(t *testing.T) {
		deps := newWebhookUCDeps()
		uc := deps.newUC()

		if _, err := uc.Reconcile(ctx, "ghost-order", "user-1", "success"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got: %v", err)
		}
	})
}
