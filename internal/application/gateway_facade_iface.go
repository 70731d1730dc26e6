package application

import (
	"context"

	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/usecase"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----
// Each verb the host dispatches maps to one of these.

type ConfigUseCaseIface interface {
	Fields() []model.ConfigField
}

type LinkUseCaseIface interface {
	Link(ctx context.Context, p model.LinkParams) string
}

type RefundUseCaseIface interface {
	Refund(ctx context.Context, p model.RefundParams) model.RefundResult
}

type CallbackUseCaseIface interface {
	Handle(ctx context.Context, paymentID string, raw map[string]string) (usecase.CallbackOutcome, error)
}

// Gateway is the capability set one payment module exposes to the host.
type Gateway interface {
	Name() string
	Config() []model.ConfigField
	Link(ctx context.Context, p model.LinkParams) string
	Refund(ctx context.Context, p model.RefundParams) model.RefundResult
	Callback(ctx context.Context, paymentID string, raw map[string]string) (usecase.CallbackOutcome, error)
}
