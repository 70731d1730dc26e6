//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"mollie-gateway/internal/domain"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/repository"
)

func seedInvoice(t *testing.T, ledger *invoiceLedger, total string, method string) *model.Invoice {
	t.Helper()
	inv := &model.Invoice{
		Currency:      "EUR",
		Total:         decimal.RequireFromString(total),
		PaymentMethod: method,
	}
	if err := ledger.CreateInvoice(context.Background(), nil, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return inv
}

func TestInvoiceLedger_ValidateCallbackInvoiceID(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	ledger := NewInvoiceLedger(testPool)
	mine := seedInvoice(t, ledger, "10.00", model.ModuleName)
	other := seedInvoice(t, ledger, "10.00", "banktransfer")

	id, err := ledger.ValidateCallbackInvoiceID(ctx, nil, mine.ID, model.ModuleName)
	if err != nil || id != mine.ID {
		t.Fatalf("expected %d, got %d %v", mine.ID, id, err)
	}
	if _, err := ledger.ValidateCallbackInvoiceID(ctx, nil, other.ID, model.ModuleName); !errors.Is(err, domain.ErrInvalidCallbackInvoice) {
		t.Fatalf("foreign invoice: expected ErrInvalidCallbackInvoice, got %v", err)
	}
	if _, err := ledger.ValidateCallbackInvoiceID(ctx, nil, 424242, model.ModuleName); !errors.Is(err, domain.ErrInvalidCallbackInvoice) {
		t.Fatalf("missing invoice: expected ErrInvalidCallbackInvoice, got %v", err)
	}
}

func TestInvoiceLedger_ApplyPayment(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	ledger := NewInvoiceLedger(testPool)
	tm := NewTxManager(testPool)
	inv := seedInvoice(t, ledger, "10.00", model.ModuleName)

	err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := ledger.ValidateCallbackTransactionNotDuplicate(ctx, tx, "tr_1"); err != nil {
			return err
		}
		return ledger.ApplyPayment(ctx, tx, inv.ID, "tr_1", decimal.RequireFromString("10.00"), decimal.Zero, model.ModuleName)
	})
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}

	got, err := ledger.FindInvoice(ctx, nil, inv.ID)
	if err != nil {
		t.Fatalf("find invoice: %v", err)
	}
	if got.Status != model.InvoiceStatusPaid || !got.AmountPaid.Equal(decimal.RequireFromString("10")) || got.DatePaid == nil {
		t.Fatalf("invoice not settled: %+v", got)
	}

	if err := ledger.ValidateCallbackTransactionNotDuplicate(ctx, nil, "tr_1"); !errors.Is(err, domain.ErrDuplicateTransaction) {
		t.Fatalf("expected ErrDuplicateTransaction, got %v", err)
	}
	err = ledger.ApplyPayment(ctx, nil, inv.ID, "tr_1", decimal.RequireFromString("10.00"), decimal.Zero, model.ModuleName)
	if !errors.Is(err, domain.ErrDuplicateTransaction) {
		t.Fatalf("unique index should reject the second credit, got %v", err)
	}

	txns, err := ledger.Transactions(ctx, nil, inv.ID)
	if err != nil || len(txns) != 1 {
		t.Fatalf("expected one transaction, got %d %v", len(txns), err)
	}
}

func TestInvoiceLedger_PartialPayment(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	ledger := NewInvoiceLedger(testPool)
	inv := seedInvoice(t, ledger, "25.00", model.ModuleName)

	if err := ledger.ApplyPayment(ctx, nil, inv.ID, "tr_a", decimal.RequireFromString("10.00"), decimal.Zero, model.ModuleName); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	got, _ := ledger.FindInvoice(ctx, nil, inv.ID)
	if got.Status != model.InvoiceStatusUnpaid || !got.Balance().Equal(decimal.RequireFromString("15")) {
		t.Fatalf("unexpected invoice after partial payment: %+v", got)
	}

	if err := ledger.ApplyPayment(ctx, nil, inv.ID, "tr_b", decimal.RequireFromString("15.00"), decimal.Zero, model.ModuleName); err != nil {
		t.Fatalf("second payment: %v", err)
	}
	got, _ = ledger.FindInvoice(ctx, nil, inv.ID)
	if got.Status != model.InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", got.Status)
	}
}

func TestInvoiceLedger_ConcurrentApply(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	ledger := NewInvoiceLedger(testPool)
	tm := NewTxManager(testPool)
	inv := seedInvoice(t, ledger, "10.00", model.ModuleName)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		dups int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
				return ledger.ApplyPayment(ctx, tx, inv.ID, "tr_race", decimal.RequireFromString("10.00"), decimal.Zero, model.ModuleName)
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				oks++
			case errors.Is(err, domain.ErrDuplicateTransaction):
				dups++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if oks != 1 || dups != 4 {
		t.Fatalf("expected 1 applied and 4 duplicates, got %d and %d", oks, dups)
	}
	got, _ := ledger.FindInvoice(ctx, nil, inv.ID)
	if !got.AmountPaid.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("invoice credited more than once: %s", got.AmountPaid)
	}
}
