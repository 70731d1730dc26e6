package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is an in-memory provider for tests and dev mode.
// Payments start open; tests move them with SetStatus.
type NoopPaymentGateway struct {
	mu       sync.Mutex
	seq      int64
	payments map[string]*model.Payment
	refunds  []*model.Refund
	created  []model.PaymentRequest
	calls    int

	// Err, when set, is returned from every call.
	Err error
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{payments: make(map[string]*model.Payment)}
}

// Factory hands out the same in-memory gateway for every API key.
func (g *NoopPaymentGateway) Factory() adapter.ProviderFactory {
	return adapter.ProviderFactoryFunc(func(string) (adapter.PaymentProvider, error) { return g, nil })
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_noop%d", prefix, g.seq)
}

func (g *NoopPaymentGateway) CreatePayment(ctx context.Context, req model.PaymentRequest) (*model.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.Err != nil {
		return nil, g.Err
	}
	g.created = append(g.created, req)
	meta, _ := json.Marshal(req.Metadata)
	now := time.Now().UTC()
	p := &model.Payment{
		ID:          g.next("tr"),
		Mode:        "test",
		Status:      model.PaymentStatusOpen,
		Amount:      req.Amount,
		Description: req.Description,
		Metadata:    meta,
		RedirectURL: req.RedirectURL,
		WebhookURL:  req.WebhookURL,
		CreatedAt:   &now,
	}
	p.Links = map[string]*model.Link{
		"checkout": {Href: "https://example.test/checkout/" + p.ID, Type: "text/html"},
	}
	g.payments[p.ID] = p
	cp := *p
	return &cp, nil
}

func (g *NoopPaymentGateway) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.Err != nil {
		return nil, g.Err
	}
	p, ok := g.payments[id]
	if !ok {
		return nil, &APIError{Status: http.StatusNotFound, Title: "Not Found", Detail: "No payment exists with token " + id + "."}
	}
	cp := *p
	return &cp, nil
}

func (g *NoopPaymentGateway) RefundPayment(ctx context.Context, payment *model.Payment, req model.RefundRequest) (*model.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.Err != nil {
		return nil, g.Err
	}
	now := time.Now().UTC()
	r := &model.Refund{
		ID:        g.next("re"),
		PaymentID: payment.ID,
		Amount:    req.Amount,
		Status:    "pending",
		CreatedAt: &now,
	}
	g.refunds = append(g.refunds, r)
	cp := *r
	return &cp, nil
}

// Put stores p as-is, replacing any payment with the same id.
func (g *NoopPaymentGateway) Put(p *model.Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := *p
	g.payments[p.ID] = &cp
}

// SetStatus moves a stored payment to status.
func (g *NoopPaymentGateway) SetStatus(id string, status model.PaymentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.payments[id]; ok {
		p.Status = status
		if status == model.PaymentStatusPaid {
			now := time.Now().UTC()
			p.PaidAt = &now
		}
	}
}

func (g *NoopPaymentGateway) Created() []model.PaymentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.PaymentRequest(nil), g.created...)
}

func (g *NoopPaymentGateway) Refunds() []*model.Refund {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*model.Refund(nil), g.refunds...)
}

// Calls counts every provider call, failed ones included.
func (g *NoopPaymentGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
