package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"mollie-gateway/internal/domain"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/adapter"
	"mollie-gateway/internal/domain/ports/repository"
	"mollie-gateway/internal/infra/logging"
	"mollie-gateway/internal/infra/metrics"
)

// CallbackOutcome says what a webhook delivery did.
type CallbackOutcome string

const (
	CallbackNotActive      CallbackOutcome = "not_active"
	CallbackPaid           CallbackOutcome = "paid"
	CallbackUnsuccessful   CallbackOutcome = "unsuccessful"
	CallbackPending        CallbackOutcome = "pending"
	CallbackInvalidInvoice CallbackOutcome = "invalid_invoice"
	CallbackDuplicate      CallbackOutcome = "duplicate"
	CallbackLocked         CallbackOutcome = "locked"
	CallbackError          CallbackOutcome = "error"
)

// Locker serializes concurrent deliveries for the same payment. TryLock
// returns domain.ErrCallbackInProgress when another holder has the key;
// any other error means the lock backend itself failed.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// CallbackUseCase reconciles a provider notification with the invoice ledger.
type CallbackUseCase interface {
	// Handle processes one delivery. A non-nil error means the provider should
	// redeliver later; validation aborts are reported through the outcome only.
	Handle(ctx context.Context, paymentID string, raw map[string]string) (CallbackOutcome, error)
}

var _ CallbackUseCase = (*callbackUC)(nil)

type callbackUC struct {
	settings   repository.GatewaySettingsRepository
	ledger     repository.InvoiceLedger
	gatewayLog repository.GatewayLogRepository
	moduleLogs repository.ModuleCallLogRepository
	providers  adapter.ProviderFactory
	tm         repository.TransactionManager
	locker     Locker
	lockTTL    time.Duration
	log        *zerolog.Logger
}

// NewCallbackUseCase wires the handler. locker may be nil, in which case the
// ledger's duplicate detection is the only guard.
func NewCallbackUseCase(
	settings repository.GatewaySettingsRepository,
	ledger repository.InvoiceLedger,
	gatewayLog repository.GatewayLogRepository,
	moduleLogs repository.ModuleCallLogRepository,
	providers adapter.ProviderFactory,
	tm repository.TransactionManager,
	locker Locker,
	lockTTL time.Duration,
	logger *zerolog.Logger,
) CallbackUseCase {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &callbackUC{
		settings:   settings,
		ledger:     ledger,
		gatewayLog: gatewayLog,
		moduleLogs: moduleLogs,
		providers:  providers,
		tm:         tm,
		locker:     locker,
		lockTTL:    lockTTL,
		log:        nopLogger(logger),
	}
}

func (u *callbackUC) Handle(ctx context.Context, paymentID string, raw map[string]string) (CallbackOutcome, error) {
	paymentID = strings.TrimSpace(paymentID)
	ctx = logging.WithModule(logging.WithPaymentID(ctx, paymentID), model.ModuleName)
	l := logging.With(ctx, u.log)
	defer logging.TraceDuration(l, "CallbackUC.Handle")()

	params, err := u.settings.Get(ctx, model.ModuleName)
	if err != nil {
		return u.failed(ctx, l, paymentID, nil, fmt.Errorf("load gateway settings: %w", err))
	}
	if !params.Active() {
		l.Warn().Msg("callback for inactive module")
		return u.done(CallbackNotActive), domain.ErrModuleNotActive
	}

	if u.locker != nil {
		key := callbackLockKey(paymentID)
		token, err := u.locker.TryLock(ctx, key, u.lockTTL)
		switch {
		case errors.Is(err, domain.ErrCallbackInProgress):
			l.Info().Msg("callback already in progress")
			return u.done(CallbackLocked), domain.ErrCallbackInProgress
		case err != nil:
			return u.failed(ctx, l, paymentID, nil, fmt.Errorf("acquire callback lock: %w", err))
		}
		defer func() {
			if err := u.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				l.Warn().Err(err).Msg("callback unlock failed")
			}
		}()
	}

	provider, err := u.providers.ForAPIKey(params.APIKey())
	if err != nil {
		return u.failed(ctx, l, paymentID, nil, err)
	}
	payment, err := provider.GetPayment(ctx, paymentID)
	if err != nil {
		return u.failed(ctx, l, paymentID, payment, err)
	}

	gatewayName := params.Name()
	if gatewayName == "" {
		gatewayName = model.ModuleName
	}

	var outcome CallbackOutcome
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		outcome, err = u.reconcile(ctx, tx, payment, gatewayName, raw)
		return err
	})
	if domain.IsCallbackAbort(err) {
		outcome := CallbackInvalidInvoice
		if errors.Is(err, domain.ErrDuplicateTransaction) {
			outcome = CallbackDuplicate
		}
		l.Warn().Err(err).Str("outcome", string(outcome)).Msg("callback aborted")
		return u.done(outcome), nil
	}
	if err != nil {
		return u.failed(ctx, l, paymentID, payment, err)
	}

	l.Info().Str("status", string(payment.Status)).Str("outcome", string(outcome)).Msg("callback handled")
	return u.done(outcome), nil
}

// reconcile runs the ledger gates and applies the disposition inside tx.
func (u *callbackUC) reconcile(ctx context.Context, tx repository.Tx, payment *model.Payment, gatewayName string, raw map[string]string) (CallbackOutcome, error) {
	metaInvoiceID, ok := payment.InvoiceID()
	if !ok {
		return "", fmt.Errorf("%w: payment carries no invoiceId metadata", domain.ErrInvalidCallbackInvoice)
	}
	invoiceID, err := u.ledger.ValidateCallbackInvoiceID(ctx, tx, metaInvoiceID, model.ModuleName)
	if err != nil {
		return "", err
	}
	if err := u.ledger.ValidateCallbackTransactionNotDuplicate(ctx, tx, payment.ID); err != nil {
		return "", err
	}

	switch {
	case payment.IsPaid():
		amount := payment.Amount.Decimal()
		if err := u.ledger.ApplyPayment(ctx, tx, invoiceID, payment.ID, amount, decimal.Zero, model.ModuleName); err != nil {
			return "", err
		}
		if err := u.appendLog(ctx, tx, gatewayName, raw, model.GatewayLogSuccessful); err != nil {
			return "", err
		}
		metrics.AddPaymentApplied(payment.Amount.Currency, amount.InexactFloat64())
		return CallbackPaid, nil
	case payment.IsTerminalUnpaid():
		if err := u.appendLog(ctx, tx, gatewayName, raw, model.GatewayLogUnsuccessful); err != nil {
			return "", err
		}
		return CallbackUnsuccessful, nil
	default:
		// open, pending or authorized: a later callback settles it
		return CallbackPending, nil
	}
}

func (u *callbackUC) appendLog(ctx context.Context, tx repository.Tx, gateway string, raw map[string]string, status model.GatewayLogStatus) error {
	data := make(map[string]string, len(raw))
	for k, v := range raw {
		data[k] = v
	}
	return u.gatewayLog.Append(ctx, tx, &model.GatewayLogEntry{
		ID:        ulid.Make().String(),
		Gateway:   gateway,
		Data:      data,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
}

func (u *callbackUC) failed(ctx context.Context, l *zerolog.Logger, paymentID string, payment *model.Payment, err error) (CallbackOutcome, error) {
	l.Error().Err(err).Msg("callback failed")
	recordModuleCall(ctx, u.moduleLogs, u.log, ActionCallback, paymentID, stringify(model.SnapshotOf(payment, err)))
	return u.done(CallbackError), err
}

func (u *callbackUC) done(o CallbackOutcome) CallbackOutcome {
	metrics.IncCallback(model.ModuleName, string(o))
	return o
}

func callbackLockKey(paymentID string) string { return "callback:lock:" + paymentID }
