package application

import (
	"context"
	"fmt"
	"strings"

	"mollie-gateway/internal/domain"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/usecase"
)

// GatewayFacade composes the per-verb usecases into one module.
type GatewayFacade struct {
	name       string
	ConfigUC   ConfigUseCaseIface
	LinkUC     LinkUseCaseIface
	RefundUC   RefundUseCaseIface
	CallbackUC CallbackUseCaseIface
}

var _ Gateway = (*GatewayFacade)(nil)

// NewGatewayFacade constructs a facade. A nil usecase disables its verb.
func NewGatewayFacade(
	name string,
	configUC ConfigUseCaseIface,
	linkUC LinkUseCaseIface,
	refundUC RefundUseCaseIface,
	callbackUC CallbackUseCaseIface,
) *GatewayFacade {
	return &GatewayFacade{
		name:       name,
		ConfigUC:   configUC,
		LinkUC:     linkUC,
		RefundUC:   refundUC,
		CallbackUC: callbackUC,
	}
}

func (g *GatewayFacade) Name() string { return g.name }

func (g *GatewayFacade) Config() []model.ConfigField {
	if g.ConfigUC == nil {
		return nil
	}
	return g.ConfigUC.Fields()
}

// Link returns the checkout form or a customer-facing message.
func (g *GatewayFacade) Link(ctx context.Context, p model.LinkParams) string {
	if g.LinkUC == nil {
		return usecase.MsgLinkFailed
	}
	return g.LinkUC.Link(ctx, p)
}

func (g *GatewayFacade) Refund(ctx context.Context, p model.RefundParams) model.RefundResult {
	if g.RefundUC == nil {
		return model.RefundResult{Status: model.RefundStatusError, RawData: "refund not supported"}
	}
	return g.RefundUC.Refund(ctx, p)
}

func (g *GatewayFacade) Callback(ctx context.Context, paymentID string, raw map[string]string) (usecase.CallbackOutcome, error) {
	if g.CallbackUC == nil {
		return usecase.CallbackError, fmt.Errorf("%w: callback not supported by %s", domain.ErrOperationFailed, g.name)
	}
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return usecase.CallbackError, fmt.Errorf("%w: missing payment id", domain.ErrInvalidArgument)
	}
	return g.CallbackUC.Handle(ctx, paymentID, raw)
}
