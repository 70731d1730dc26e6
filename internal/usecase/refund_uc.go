package usecase

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog"

	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/adapter"
	"mollie-gateway/internal/domain/ports/repository"
	"mollie-gateway/internal/infra/logging"
	"mollie-gateway/internal/infra/metrics"
)

// RefundUseCase asks the provider to refund a previously paid transaction.
type RefundUseCase interface {
	// Refund never fails past its boundary: provider errors come back as a
	// RefundResult with status error.
	Refund(ctx context.Context, p model.RefundParams) model.RefundResult
}

var _ RefundUseCase = (*refundUC)(nil)

type refundUC struct {
	providers  adapter.ProviderFactory
	moduleLogs repository.ModuleCallLogRepository
	log        *zerolog.Logger
}

func NewRefundUseCase(providers adapter.ProviderFactory, moduleLogs repository.ModuleCallLogRepository, logger *zerolog.Logger) RefundUseCase {
	return &refundUC{providers: providers, moduleLogs: moduleLogs, log: nopLogger(logger)}
}

func (u *refundUC) Refund(ctx context.Context, p model.RefundParams) (res model.RefundResult) {
	ctx = logging.WithPaymentID(ctx, p.TransactionID)
	l := logging.With(ctx, u.log)

	defer func() {
		if rec := recover(); rec != nil {
			res = u.fail(ctx, l, p, fmt.Errorf("refund panic: %v", rec))
		}
	}()

	provider, err := u.providers.ForAPIKey(p.APIKey())
	if err != nil {
		return u.fail(ctx, l, p, err)
	}
	payment, err := provider.GetPayment(ctx, p.TransactionID)
	if err != nil {
		return u.fail(ctx, l, p, err)
	}
	// sent exactly as requested, never rounded
	amount, err := model.ExactAmount(refundCurrency(payment, p), p.Amount)
	if err != nil {
		return u.fail(ctx, l, p, err)
	}
	refund, err := provider.RefundPayment(ctx, payment, model.RefundRequest{Amount: amount})
	if err != nil {
		return u.fail(ctx, l, p, err)
	}

	l.Info().Str("refund_id", refund.ID).Str("amount", refund.Amount.Value).Msg("refund requested")
	metrics.IncRefund(model.ModuleName, string(model.RefundStatusSuccess))
	return model.RefundResult{
		Status:        model.RefundStatusSuccess,
		TransactionID: refund.ID,
		RawData: map[string]string{
			"status":  string(model.RefundStatusSuccess),
			"transid": refund.ID,
		},
	}
}

func (u *refundUC) fail(ctx context.Context, l *zerolog.Logger, p model.RefundParams, err error) model.RefundResult {
	l.Error().Err(err).Msg("refund failed")
	metrics.IncRefund(model.ModuleName, string(model.RefundStatusError))
	recordModuleCall(ctx, u.moduleLogs, u.log, ActionRefund, p.TransactionID, err.Error())
	return model.RefundResult{
		Status:  model.RefundStatusError,
		RawData: html.EscapeString(err.Error()),
	}
}

// refundCurrency prefers the currency the payment was made in so the amount
// is sent with that currency's precision.
func refundCurrency(payment *model.Payment, p model.RefundParams) string {
	if c := strings.TrimSpace(payment.Amount.Currency); c != "" {
		return c
	}
	if c := strings.TrimSpace(p.Currency); c != "" {
		return c
	}
	return SupportedCurrency
}
