package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"mollie-gateway/internal/domain/model"
)

// -----------------------------
// Host collaborators
// -----------------------------

// GatewaySettingsRepository returns the settings the host stores for a module.
// A module the host never activated yields empty params, not an error.
type GatewaySettingsRepository interface {
	Get(ctx context.Context, module string) (model.GatewayParams, error)
	Save(ctx context.Context, module string, params model.GatewayParams) error
}

// InvoiceLedger is the host's invoice bookkeeping.
type InvoiceLedger interface {
	FindInvoice(ctx context.Context, tx Tx, invoiceID int64) (*model.Invoice, error)
	// ValidateCallbackInvoiceID returns the invoice id when it denotes an
	// existing invoice handled by module, ErrInvalidCallbackInvoice otherwise.
	ValidateCallbackInvoiceID(ctx context.Context, tx Tx, invoiceID int64, module string) (int64, error)
	// ValidateCallbackTransactionNotDuplicate returns ErrDuplicateTransaction
	// when transactionID is already recorded against any invoice.
	ValidateCallbackTransactionNotDuplicate(ctx context.Context, tx Tx, transactionID string) error
	// ApplyPayment records a credit line and updates the invoice. A repeated
	// transactionID fails with ErrDuplicateTransaction.
	ApplyPayment(ctx context.Context, tx Tx, invoiceID int64, transactionID string, amount, fee decimal.Decimal, module string) error
}

// GatewayLogRepository appends callback outcomes to the host gateway log.
type GatewayLogRepository interface {
	Append(ctx context.Context, tx Tx, entry *model.GatewayLogEntry) error
	ListByGateway(ctx context.Context, tx Tx, gateway string, limit int) ([]*model.GatewayLogEntry, error)
}

// ModuleCallLogRepository appends diagnostic records of provider calls.
type ModuleCallLogRepository interface {
	Append(ctx context.Context, entry *model.ModuleCallLog) error
}
