//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"resume-ai-credits/internal/domain"
	"resume-ai-credits/internal/domain/model"
	"resume-ai-credits/internal/domain/ports/adapter"
	"resume-ai-credits/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately with NoTX by default. Tests that need
// transactional behavior (serialization, rollback) assign WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// serializeTx emulates the per-account row lock: every transaction body runs
// under one mutex, exactly one concurrent claimant proceeds at a time.
func serializeTx(tm *MockTxManager) {
	var mu sync.Mutex
	tm.WithTxFunc = func(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
		mu.Lock()
		defer mu.Unlock()
		return fn(ctx, repository.NoTX)
	}
}

// ---- Mock AccountRepository ----

type MockAccountRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Account

	FindByIDFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.Account, error)
	SaveFunc     func(ctx context.Context, tx repository.Tx, a *model.Account) error
}

func NewMockAccountRepo() *MockAccountRepo {
	return &MockAccountRepo{store: make(map[string]*model.Account)}
}

var _ repository.AccountRepository = (*MockAccountRepo)(nil)

func (m *MockAccountRepo) FindByID(ctx context.Context, tx repository.Tx, userID string) (*model.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAccountRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.store {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockAccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.UserID] = &cp
	return nil
}

// ---- Mock LedgerRepository ----

type MockLedgerRepo struct {
	mu     sync.RWMutex
	Events []*model.LedgerEvent

	AppendFunc func(ctx context.Context, tx repository.Tx, ev *model.LedgerEvent) error
}

func NewMockLedgerRepo() *MockLedgerRepo { return &MockLedgerRepo{} }

var _ repository.LedgerRepository = (*MockLedgerRepo)(nil)

func (m *MockLedgerRepo) Append(ctx context.Context, tx repository.Tx, ev *model.LedgerEvent) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, ev)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ev
	m.Events = append(m.Events, &cp)
	return nil
}

func (m *MockLedgerRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.LedgerEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.LedgerEvent
	for i := len(m.Events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Events[i].UserID == userID {
			cp := *m.Events[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// EventsFor returns the stored events for one user, oldest first.
func (m *MockLedgerRepo) EventsFor(userID string) []*model.LedgerEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.LedgerEvent
	for _, ev := range m.Events {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	return out
}

// ---- Mock CoinPackageRepository ----

type MockPackageRepo struct {
	mu    sync.RWMutex
	store map[string]*model.CoinPackage

	FindFreePackageFunc func(ctx context.Context, tx repository.Tx) (*model.CoinPackage, error)
}

func NewMockPackageRepo() *MockPackageRepo {
	return &MockPackageRepo{store: make(map[string]*model.CoinPackage)}
}

var _ repository.CoinPackageRepository = (*MockPackageRepo)(nil)

func (m *MockPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CoinPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPackageRepo) FindFreePackage(ctx context.Context, tx repository.Tx) (*model.CoinPackage, error) {
	if m.FindFreePackageFunc != nil {
		return m.FindFreePackageFunc(ctx, tx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.IsFree() {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPackageRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.CoinPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.CoinPackage, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.CoinPackage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

// ---- Mock PaymentTransactionRepository ----

type MockPaymentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.PaymentTransaction

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.PaymentTransaction) error
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: make(map[string]*model.PaymentTransaction)}
}

var _ repository.PaymentTransactionRepository = (*MockPaymentRepo)(nil)

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentTransaction) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.OrderID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.PaymentTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PaymentTransaction
	for _, p := range m.store {
		if p.UserID == userID && len(out) < limit {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock WebhookEventRepository ----

type MockWebhookEventRepo struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMockWebhookEventRepo() *MockWebhookEventRepo {
	return &MockWebhookEventRepo{seen: make(map[string]time.Time)}
}

var _ repository.WebhookEventRepository = (*MockWebhookEventRepo)(nil)

func (m *MockWebhookEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, eventID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[eventID]; ok {
		return false, nil
	}
	m.seen[eventID] = at
	return true, nil
}

// ---- Mock UserStateRepository ----

type MockStateRepo struct {
	mu          sync.RWMutex
	states      map[string]*model.UserState
	Transitions []*model.StateTransitionRecord
}

func NewMockStateRepo() *MockStateRepo {
	return &MockStateRepo{states: make(map[string]*model.UserState)}
}

var _ repository.UserStateRepository = (*MockStateRepo)(nil)

func (m *MockStateRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.UserState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *MockStateRepo) Save(ctx context.Context, tx repository.Tx, st *model.UserState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *st
	m.states[st.UserID] = &cp
	return nil
}

func (m *MockStateRepo) AppendTransition(ctx context.Context, tx repository.Tx, rec *model.StateTransitionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.Transitions = append(m.Transitions, &cp)
	return nil
}

func (m *MockStateRepo) ListTransitions(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.StateTransitionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.StateTransitionRecord
	for i := len(m.Transitions) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Transitions[i].UserID == userID {
			cp := *m.Transitions[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// TransitionsFor returns the audit rows for one user, oldest first.
func (m *MockStateRepo) TransitionsFor(userID string) []*model.StateTransitionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.StateTransitionRecord
	for _, t := range m.Transitions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// ---- Mock FeatureAccessRepository ----

type MockFeatureAccessRepo struct {
	mu    sync.RWMutex
	store map[string]*model.FeatureAccess
}

func NewMockFeatureAccessRepo() *MockFeatureAccessRepo {
	return &MockFeatureAccessRepo{store: make(map[string]*model.FeatureAccess)}
}

var _ repository.FeatureAccessRepository = (*MockFeatureAccessRepo)(nil)

func (m *MockFeatureAccessRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.FeatureAccess, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fa, ok := m.store[userID]
	if !ok {
		return model.NewFeatureAccess(userID), nil
	}
	cp := *fa
	cp.UnlockedKeys = append([]string(nil), fa.UnlockedKeys...)
	cp.EnabledKeys = append([]string(nil), fa.EnabledKeys...)
	return &cp, nil
}

func (m *MockFeatureAccessRepo) Save(ctx context.Context, tx repository.Tx, fa *model.FeatureAccess) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *fa
	cp.UnlockedKeys = append([]string(nil), fa.UnlockedKeys...)
	cp.EnabledKeys = append([]string(nil), fa.EnabledKeys...)
	m.store[fa.UserID] = &cp
	return nil
}

// ---- Mock FeatureCatalogRepository ----

type MockFeatureCatalogRepo struct {
	mu    sync.RWMutex
	store map[string]*model.FeatureCost
}

func NewMockFeatureCatalogRepo() *MockFeatureCatalogRepo {
	return &MockFeatureCatalogRepo{store: make(map[string]*model.FeatureCost)}
}

var _ repository.FeatureCatalogRepository = (*MockFeatureCatalogRepo)(nil)

func (m *MockFeatureCatalogRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.FeatureCost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockFeatureCatalogRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.FeatureCost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.FeatureCost, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockFeatureCatalogRepo) Save(ctx context.Context, tx repository.Tx, c *model.FeatureCost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.Key] = &cp
	return nil
}

// ---- Mock Notifier ----

type MockNotifier struct {
	mu    sync.Mutex
	Calls []string
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) NotifyStateChange(ctx context.Context, userID, fromState, toState, event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, userID+":"+fromState+"->"+toState)
	return nil
}
