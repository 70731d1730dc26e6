package adapter

import (
	"context"

	"mollie-gateway/internal/domain/model"
)

// PaymentProvider is the hex port for the payment provider API.
// Implementations are bound to a single API key.
type PaymentProvider interface {
	Name() string

	// CreatePayment registers a payment and returns it with its checkout link.
	CreatePayment(ctx context.Context, req model.PaymentRequest) (*model.Payment, error)
	// GetPayment fetches the current, authoritative state of a payment.
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	// RefundPayment refunds (part of) a paid payment.
	RefundPayment(ctx context.Context, payment *model.Payment, req model.RefundRequest) (*model.Refund, error)
}

// ProviderFactory builds a provider client for the given API key. The key is
// picked per call from the host-supplied settings, so clients are not shared.
type ProviderFactory interface {
	ForAPIKey(apiKey string) (PaymentProvider, error)
}

// ProviderFactoryFunc adapts a plain function to ProviderFactory.
type ProviderFactoryFunc func(apiKey string) (PaymentProvider, error)

func (f ProviderFactoryFunc) ForAPIKey(apiKey string) (PaymentProvider, error) { return f(apiKey) }
