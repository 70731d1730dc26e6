package usecase

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"mollie-gateway/internal/domain"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/adapter"
	"mollie-gateway/internal/domain/ports/repository"
	"mollie-gateway/internal/infra/logging"
	"mollie-gateway/internal/infra/metrics"
)

// SupportedCurrency is the only currency the checkout link accepts.
const SupportedCurrency = "EUR"

// Customer-facing messages returned instead of a payment form.
const (
	MsgUnsupportedCurrency = "This payment option is only available for the currency EURO."
	MsgLinkFailed          = "Something went wrong, please contact support."
)

// LinkUseCase renders the "pay now" form for an invoice.
type LinkUseCase interface {
	// Link returns either an HTML form posting to the hosted checkout or a
	// plain message for the customer. It never returns provider details.
	Link(ctx context.Context, p model.LinkParams) string
}

var _ LinkUseCase = (*linkUC)(nil)

type linkUC struct {
	providers  adapter.ProviderFactory
	moduleLogs repository.ModuleCallLogRepository
	log        *zerolog.Logger
}

func NewLinkUseCase(providers adapter.ProviderFactory, moduleLogs repository.ModuleCallLogRepository, logger *zerolog.Logger) LinkUseCase {
	return &linkUC{providers: providers, moduleLogs: moduleLogs, log: nopLogger(logger)}
}

var payForm = template.Must(template.New("pay").Parse(
	`<form method="post" action="{{.Action}}"><input type="submit" value="{{.Label}} >>" /></form>`))

func (u *linkUC) Link(ctx context.Context, p model.LinkParams) string {
	ctx = logging.WithInvoiceID(ctx, p.InvoiceID)
	l := logging.With(ctx, u.log)

	if err := checkCurrency(p.Currency); err != nil {
		l.Debug().Err(err).Msg("link rejected")
		metrics.IncLink(model.ModuleName, "rejected_currency")
		return MsgUnsupportedCurrency
	}

	req, err := BuildPaymentRequest(p)
	if err != nil {
		return u.fail(ctx, l, req, err)
	}

	provider, err := u.providers.ForAPIKey(p.APIKey())
	if err != nil {
		return u.fail(ctx, l, req, err)
	}
	payment, err := provider.CreatePayment(ctx, req)
	if err != nil {
		return u.fail(ctx, l, req, err)
	}

	var buf bytes.Buffer
	if err := payForm.Execute(&buf, struct{ Action, Label string }{payment.CheckoutURL(), p.PayNowLabel}); err != nil {
		return u.fail(ctx, l, req, err)
	}
	l.Info().Str("payment_id", payment.ID).Msg("checkout link created")
	metrics.IncLink(model.ModuleName, "form")
	return buf.String()
}

func (u *linkUC) fail(ctx context.Context, l *zerolog.Logger, req model.PaymentRequest, err error) string {
	l.Error().Err(err).Msg("create payment failed")
	metrics.IncLink(model.ModuleName, "provider_error")
	recordModuleCall(ctx, u.moduleLogs, u.log, ActionLink, req, err.Error())
	return MsgLinkFailed
}

func checkCurrency(currency string) error {
	if !strings.EqualFold(strings.TrimSpace(currency), SupportedCurrency) {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedCurrency, currency)
	}
	return nil
}

// BuildPaymentRequest maps host link params to the provider request body.
// An amount finer than cents is reported as an error; the rest of the
// request is still filled in so it can be logged.
func BuildPaymentRequest(p model.LinkParams) (model.PaymentRequest, error) {
	amount, err := model.ExactAmount(SupportedCurrency, p.Amount)
	id := strconv.FormatInt(p.InvoiceID, 10)
	base := strings.TrimRight(strings.TrimSpace(p.SystemURL), "/")
	tpl := p.TransactionDescription
	if strings.TrimSpace(tpl) == "" {
		tpl = DefaultTransactionDescription
	}
	return model.PaymentRequest{
		Amount:      amount,
		Description: strings.ReplaceAll(tpl, model.InvoiceIDPlaceholder, id),
		RedirectURL: base + "/viewinvoice.php?id=" + id,
		WebhookURL:  base + "/modules/gateways/" + model.ModuleName + "/callback.php?invoiceId=" + id,
		Metadata:    map[string]any{"invoiceId": p.InvoiceID},
	}, err
}
