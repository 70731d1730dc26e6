package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Gateway errors
	ErrUnsupportedCurrency    = errors.New("unsupported currency")
	ErrAmountPrecision        = errors.New("amount has more decimals than the currency allows")
	ErrModuleNotActive        = errors.New("gateway module not activated")
	ErrUnknownModule          = errors.New("unknown gateway module")
	ErrProvider               = errors.New("payment provider error")
	ErrInvalidCallbackInvoice = errors.New("callback invoice id is invalid for this gateway")
	ErrDuplicateTransaction   = errors.New("transaction already recorded")
	ErrCallbackInProgress     = errors.New("callback for this payment is already being processed")
)

// IsCallbackAbort reports whether err is one of the host validation aborts
// that terminate a webhook delivery without asking the provider to retry.
func IsCallbackAbort(err error) bool {
	return errors.Is(err, ErrInvalidCallbackInvoice) || errors.Is(err, ErrDuplicateTransaction)
}
