//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"mollie-gateway/internal/domain"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/adapter"
	"mollie-gateway/internal/infra/adapters/payment"
	"mollie-gateway/internal/usecase"
)

func refundParams() model.RefundParams {
	return model.RefundParams{
		TransactionID: "tr_abc123",
		Amount:        decimal.RequireFromString("5.00"),
		Currency:      "EUR",
		LiveAPIKey:    "live_key",
		TestAPIKey:    "test_key",
	}
}

func paidPayment(id string, invoiceID string, value string) *model.Payment {
	return &model.Payment{
		ID:       id,
		Mode:     "test",
		Status:   model.PaymentStatusPaid,
		Amount:   model.Amount{Currency: "EUR", Value: value},
		Metadata: []byte(`{"invoiceId":` + invoiceID + `}`),
	}
}

func TestRefundUseCase_Refund(t *testing.T) {
	ctx := context.Background()

	t.Run("should refund and return the refund id", func(t *testing.T) {
		gw := payment.NewNoopPaymentGateway()
		gw.Put(paidPayment("tr_abc123", "1042", "10.00"))
		logs := &MockModuleLog{}
		uc := usecase.NewRefundUseCase(gw.Factory(), logs, newTestLogger())

		res := uc.Refund(ctx, refundParams())

		if res.Status != model.RefundStatusSuccess || res.TransactionID != "re_noop1" {
			t.Fatalf("unexpected result %+v", res)
		}
		raw, ok := res.RawData.(map[string]string)
		if !ok || raw["status"] != "success" || raw["transid"] != "re_noop1" {
			t.Fatalf("unexpected raw data %#v", res.RawData)
		}
		refunds := gw.Refunds()
		if len(refunds) != 1 {
			t.Fatalf("expected one refund, got %d", len(refunds))
		}
		if refunds[0].PaymentID != "tr_abc123" || refunds[0].Amount != (model.Amount{Currency: "EUR", Value: "5.00"}) {
			t.Fatalf("unexpected refund %+v", refunds[0])
		}
		if len(logs.Entries()) != 0 {
			t.Fatalf("success must not write module logs")
		}
	})

	t.Run("should return an escaped error on provider failure", func(t *testing.T) {
		gw := payment.NewNoopPaymentGateway()
		gw.Err = errors.New(`amount "5.00" exceeds <remaining>`)
		logs := &MockModuleLog{}
		uc := usecase.NewRefundUseCase(gw.Factory(), logs, newTestLogger())

		res := uc.Refund(ctx, refundParams())

		if res.Status != model.RefundStatusError || res.TransactionID != "" {
			t.Fatalf("unexpected result %+v", res)
		}
		if res.RawData != "amount &#34;5.00&#34; exceeds &lt;remaining&gt;" {
			t.Fatalf("unexpected raw data %#v", res.RawData)
		}
		entries := logs.Entries()
		if len(entries) != 1 || entries[0].Action != usecase.ActionRefund || entries[0].Request != "tr_abc123" {
			t.Fatalf("unexpected module log %+v", entries)
		}
	})

	t.Run("should fail for an unknown transaction", func(t *testing.T) {
		gw := payment.NewNoopPaymentGateway()
		uc := usecase.NewRefundUseCase(gw.Factory(), &MockModuleLog{}, newTestLogger())

		res := uc.Refund(ctx, refundParams())
		if res.Status != model.RefundStatusError {
			t.Fatalf("expected error status, got %+v", res)
		}
		if len(gw.Refunds()) != 0 {
			t.Fatalf("no refund may be issued")
		}
	})

	t.Run("should convert a panic into an error result", func(t *testing.T) {
		factory := adapter.ProviderFactoryFunc(func(string) (adapter.PaymentProvider, error) {
			panic("client not initialized")
		})
		uc := usecase.NewRefundUseCase(factory, &MockModuleLog{}, newTestLogger())

		res := uc.Refund(ctx, refundParams())
		if res.Status != model.RefundStatusError {
			t.Fatalf("expected error status, got %+v", res)
		}
	})

	t.Run("should use the payment currency precision", func(t *testing.T) {
		gw := payment.NewNoopPaymentGateway()
		p := paidPayment("tr_jpy", "1", "1000")
		p.Amount.Currency = "JPY"
		gw.Put(p)
		uc := usecase.NewRefundUseCase(gw.Factory(), &MockModuleLog{}, newTestLogger())

		params := refundParams()
		params.TransactionID = "tr_jpy"
		params.Amount = decimal.NewFromInt(250)
		uc.Refund(ctx, params)

		refunds := gw.Refunds()
		if len(refunds) != 1 || refunds[0].Amount != (model.Amount{Currency: "JPY", Value: "250"}) {
			t.Fatalf("unexpected refund %+v", refunds)
		}
	})

	t.Run("should refuse amounts finer than the currency allows", func(t *testing.T) {
		testCases := []struct {
			name     string
			currency string
			amount   string
		}{
			{"EUR half cent", "EUR", "5.005"},
			{"JPY fraction", "JPY", "250.5"},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				gw := payment.NewNoopPaymentGateway()
				p := paidPayment("tr_exact", "1", "1000")
				p.Amount.Currency = tc.currency
				gw.Put(p)
				logs := &MockModuleLog{}
				uc := usecase.NewRefundUseCase(gw.Factory(), logs, newTestLogger())

				params := refundParams()
				params.TransactionID = "tr_exact"
				params.Amount = decimal.RequireFromString(tc.amount)
				res := uc.Refund(ctx, params)

				if res.Status != model.RefundStatusError {
					t.Fatalf("expected error status, got %+v", res)
				}
				raw, _ := res.RawData.(string)
				if !strings.Contains(raw, domain.ErrAmountPrecision.Error()) {
					t.Errorf("unexpected raw data %#v", res.RawData)
				}
				if len(gw.Refunds()) != 0 {
					t.Fatalf("no refund may be issued, got %+v", gw.Refunds())
				}
				if entries := logs.Entries(); len(entries) != 1 || entries[0].Action != usecase.ActionRefund {
					t.Fatalf("unexpected module log %+v", entries)
				}
			})
		}
	})
}
