//go:build !integration

package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/repository"
	"mollie-gateway/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

type mockLinkUC struct {
	got model.LinkParams
	out string
}

func (m *mockLinkUC) Link(ctx context.Context, p model.LinkParams) string {
	m.got = p
	return m.out
}

type mockRefundUC struct {
	got model.RefundParams
	out model.RefundResult
}

func (m *mockRefundUC) Refund(ctx context.Context, p model.RefundParams) model.RefundResult {
	m.got = p
	return m.out
}

type mockCallbackUC struct {
	mu    sync.Mutex
	calls int
	gotID string
	raw   map[string]string
	err   error
}

func (m *mockCallbackUC) Handle(ctx context.Context, paymentID string, raw map[string]string) (usecase.CallbackOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.gotID = paymentID
	m.raw = raw
	if m.err != nil {
		return usecase.CallbackError, m.err
	}
	return usecase.CallbackPaid, nil
}

type mockGatewayLog struct {
	entries []*model.GatewayLogEntry
	gotGW   string
	gotN    int
	err     error
}

func (m *mockGatewayLog) Append(ctx context.Context, tx repository.Tx, e *model.GatewayLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockGatewayLog) ListByGateway(ctx context.Context, tx repository.Tx, gateway string, limit int) ([]*model.GatewayLogEntry, error) {
	m.gotGW, m.gotN = gateway, limit
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

// memLimiter counts per key without expiry.
type memLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *memLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[key]++
	return m.counts[key] <= limit, nil
}
