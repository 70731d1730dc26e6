//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"mollie-gateway/internal/domain"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/repository"
)

// =============================
// Host collaborators
// =============================

// ---- Mock GatewaySettingsRepository ----

type MockSettingsRepo struct {
	mu     sync.Mutex
	params map[string]model.GatewayParams
	GetErr error
}

func NewMockSettingsRepo() *MockSettingsRepo {
	return &MockSettingsRepo{params: map[string]model.GatewayParams{}}
}

var _ repository.GatewaySettingsRepository = (*MockSettingsRepo)(nil)

func (m *MockSettingsRepo) Get(ctx context.Context, module string) (model.GatewayParams, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	out := model.GatewayParams{}
	for k, v := range m.params[module] {
		out[k] = v
	}
	return out, nil
}

func (m *MockSettingsRepo) Save(ctx context.Context, module string, params model.GatewayParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := model.GatewayParams{}
	for k, v := range params {
		cp[k] = v
	}
	m.params[module] = cp
	return nil
}

// ---- Mock InvoiceLedger ----

type MockLedger struct {
	mu       sync.Mutex
	invoices map[int64]*model.Invoice
	txns     map[string]model.LedgerTransaction

	ApplyErr error
}

func NewMockLedger() *MockLedger {
	return &MockLedger{invoices: map[int64]*model.Invoice{}, txns: map[string]model.LedgerTransaction{}}
}

var _ repository.InvoiceLedger = (*MockLedger)(nil)

func (m *MockLedger) AddInvoice(inv *model.Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *inv
	m.invoices[inv.ID] = &cp
}

func (m *MockLedger) FindInvoice(ctx context.Context, tx repository.Tx, invoiceID int64) (*model.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *MockLedger) ValidateCallbackInvoiceID(ctx context.Context, tx repository.Tx, invoiceID int64, module string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[invoiceID]
	if !ok || inv.PaymentMethod != module {
		return 0, domain.ErrInvalidCallbackInvoice
	}
	return inv.ID, nil
}

func (m *MockLedger) ValidateCallbackTransactionNotDuplicate(ctx context.Context, tx repository.Tx, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txns[transactionID]; ok {
		return domain.ErrDuplicateTransaction
	}
	return nil
}

func (m *MockLedger) ApplyPayment(ctx context.Context, tx repository.Tx, invoiceID int64, transactionID string, amount, fee decimal.Decimal, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ApplyErr != nil {
		return m.ApplyErr
	}
	if _, ok := m.txns[transactionID]; ok {
		return domain.ErrDuplicateTransaction
	}
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	inv.ApplyPayment(amount, now)
	m.txns[transactionID] = model.LedgerTransaction{
		ID:            int64(len(m.txns) + 1),
		InvoiceID:     invoiceID,
		TransactionID: transactionID,
		AmountIn:      amount,
		Fees:          fee,
		Gateway:       module,
		CreatedAt:     now,
	}
	return nil
}

func (m *MockLedger) Transactions() []model.LedgerTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.LedgerTransaction, 0, len(m.txns))
	for _, t := range m.txns {
		out = append(out, t)
	}
	return out
}

// ---- Mock GatewayLogRepository ----

type MockGatewayLog struct {
	mu        sync.Mutex
	entries   []*model.GatewayLogEntry
	AppendErr error
}

var _ repository.GatewayLogRepository = (*MockGatewayLog)(nil)

func (m *MockGatewayLog) Append(ctx context.Context, tx repository.Tx, entry *model.GatewayLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MockGatewayLog) ListByGateway(ctx context.Context, tx repository.Tx, gateway string, limit int) ([]*model.GatewayLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.GatewayLogEntry
	for _, e := range m.entries {
		if e.Gateway == gateway {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockGatewayLog) Entries() []*model.GatewayLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.GatewayLogEntry(nil), m.entries...)
}

// ---- Mock ModuleCallLogRepository ----

type MockModuleLog struct {
	mu        sync.Mutex
	entries   []*model.ModuleCallLog
	AppendErr error
}

var _ repository.ModuleCallLogRepository = (*MockModuleLog)(nil)

func (m *MockModuleLog) Append(ctx context.Context, entry *model.ModuleCallLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	cp := *entry
	cp.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MockModuleLog) Entries() []*model.ModuleCallLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.ModuleCallLog(nil), m.entries...)
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error

	mu    sync.Mutex
	calls int
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

func (m *MockTxManager) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrCallbackInProgress
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

// Held reports whether key is currently locked.
func (l *MockLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
