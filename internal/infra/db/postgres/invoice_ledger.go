package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"mollie-gateway/internal/domain"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/repository"
)

var _ repository.InvoiceLedger = (*invoiceLedger)(nil)

type invoiceLedger struct{ pool *pgxpool.Pool }

func NewInvoiceLedger(pool *pgxpool.Pool) *invoiceLedger {
	return &invoiceLedger{pool: pool}
}

const invoiceColumns = `id, currency, total::text, amount_paid::text, status, payment_method, created_at, updated_at, date_paid`

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var (
		inv         model.Invoice
		total, paid string
		status      string
	)
	if err := row.Scan(&inv.ID, &inv.Currency, &total, &paid, &status, &inv.PaymentMethod, &inv.CreatedAt, &inv.UpdatedAt, &inv.DatePaid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var err error
	if inv.Total, err = decimal.NewFromString(total); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if inv.AmountPaid, err = decimal.NewFromString(paid); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	inv.Status = model.InvoiceStatus(status)
	return &inv, nil
}

func (r *invoiceLedger) FindInvoice(ctx context.Context, tx repository.Tx, invoiceID int64) (*model.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", invoiceID)
	if err != nil {
		return nil, err
	}
	return scanInvoice(row)
}

func (r *invoiceLedger) ValidateCallbackInvoiceID(ctx context.Context, tx repository.Tx, invoiceID int64, module string) (int64, error) {
	if invoiceID <= 0 {
		return 0, domain.ErrInvalidCallbackInvoice
	}
	const q = `SELECT id, payment_method FROM invoices WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, invoiceID)
	if err != nil {
		return 0, err
	}
	var (
		id     int64
		method string
	)
	if err := row.Scan(&id, &method); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: invoice %d not found", domain.ErrInvalidCallbackInvoice, invoiceID)
		}
		return 0, domain.ErrReadDatabaseRow
	}
	if !strings.EqualFold(method, module) {
		return 0, fmt.Errorf("%w: invoice %d is assigned to %q", domain.ErrInvalidCallbackInvoice, invoiceID, method)
	}
	return id, nil
}

func (r *invoiceLedger) ValidateCallbackTransactionNotDuplicate(ctx context.Context, tx repository.Tx, transactionID string) error {
	const q = `SELECT EXISTS (SELECT 1 FROM ledger_transactions WHERE transaction_id=$1);`
	row, err := pickRow(ctx, r.pool, tx, q, transactionID)
	if err != nil {
		return err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return domain.ErrReadDatabaseRow
	}
	if exists {
		return domain.ErrDuplicateTransaction
	}
	return nil
}

// ApplyPayment inserts the credit line first so the unique index on
// transaction_id rejects a concurrent duplicate before the invoice is touched.
func (r *invoiceLedger) ApplyPayment(ctx context.Context, tx repository.Tx, invoiceID int64, transactionID string, amount, fee decimal.Decimal, module string) error {
	now := time.Now().UTC()

	const ins = `
INSERT INTO ledger_transactions (invoice_id, transaction_id, amount_in, fees, gateway, created_at)
VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6);`
	if _, err := execSQL(ctx, r.pool, tx, ins, invoiceID, transactionID, amount.String(), fee.String(), module, now); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateTransaction
		}
		return mapWriteErr(err)
	}

	inv, err := r.FindInvoice(ctx, tx, invoiceID)
	if err != nil {
		return err
	}
	inv.ApplyPayment(amount, now)

	const upd = `UPDATE invoices SET amount_paid=$2::numeric, status=$3, date_paid=$4, updated_at=$5 WHERE id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, upd, inv.ID, inv.AmountPaid.String(), string(inv.Status), inv.DatePaid, inv.UpdatedAt); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

// Transactions lists the credit lines recorded for an invoice, oldest first.
func (r *invoiceLedger) Transactions(ctx context.Context, tx repository.Tx, invoiceID int64) ([]*model.LedgerTransaction, error) {
	const q = `
SELECT id, invoice_id, transaction_id, amount_in::text, fees::text, gateway, created_at
FROM ledger_transactions WHERE invoice_id=$1 ORDER BY id;`
	rows, err := queryRows(ctx, r.pool, tx, q, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.LedgerTransaction
	for rows.Next() {
		var (
			t         model.LedgerTransaction
			amt, fees string
		)
		if err := rows.Scan(&t.ID, &t.InvoiceID, &t.TransactionID, &amt, &fees, &t.Gateway, &t.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		t.AmountIn, _ = decimal.NewFromString(amt)
		t.Fees, _ = decimal.NewFromString(fees)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

// CreateInvoice is used by seeding and tests; the host owns invoice creation.
func (r *invoiceLedger) CreateInvoice(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now
	if inv.Status == "" {
		inv.Status = model.InvoiceStatusUnpaid
	}
	const q = `
INSERT INTO invoices (currency, total, amount_paid, status, payment_method, created_at, updated_at, date_paid)
VALUES ($1, $2::numeric, $3::numeric, $4, $5, $6, $7, $8) RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, inv.Currency, inv.Total.String(), inv.AmountPaid.String(), string(inv.Status), inv.PaymentMethod, inv.CreatedAt, inv.UpdatedAt, inv.DatePaid)
	if err != nil {
		return err
	}
	if err := row.Scan(&inv.ID); err != nil {
		return mapWriteErr(err)
	}
	return nil
}
