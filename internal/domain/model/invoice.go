package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusUnpaid    InvoiceStatus = "Unpaid"
	InvoiceStatusPaid      InvoiceStatus = "Paid"
	InvoiceStatusCancelled InvoiceStatus = "Cancelled"
	InvoiceStatusRefunded  InvoiceStatus = "Refunded"
)

// Invoice is owned by the host ledger. The gateway only reads it and asks the
// ledger to apply payments to it.
type Invoice struct {
	ID            int64
	Currency      string
	Total         decimal.Decimal
	AmountPaid    decimal.Decimal
	Status        InvoiceStatus
	PaymentMethod string // gateway module name the invoice is assigned to
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DatePaid      *time.Time
}

// Balance is the amount still due.
func (i *Invoice) Balance() decimal.Decimal {
	b := i.Total.Sub(i.AmountPaid)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

// ApplyPayment adds amount to the paid total and flips the invoice to Paid
// once nothing is left due. Cancelled and refunded invoices still record the
// money but keep their status.
func (i *Invoice) ApplyPayment(amount decimal.Decimal, at time.Time) {
	i.AmountPaid = i.AmountPaid.Add(amount)
	i.UpdatedAt = at
	if i.Status == InvoiceStatusUnpaid && i.Balance().IsZero() {
		i.Status = InvoiceStatusPaid
		i.DatePaid = &at
	}
}

// LedgerTransaction is one credit line recorded against an invoice.
// TransactionID is unique across the ledger.
type LedgerTransaction struct {
	ID            int64
	InvoiceID     int64
	TransactionID string
	AmountIn      decimal.Decimal
	Fees          decimal.Decimal
	Gateway       string
	CreatedAt     time.Time
}
