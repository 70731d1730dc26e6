// File: internal/infra/adapters/payment/mollie_client.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mollie-gateway/internal/domain"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/adapter"
	"mollie-gateway/internal/infra/metrics"
)

var _ adapter.PaymentProvider = (*MollieClient)(nil)

const (
	DefaultMollieBaseURL = "https://api.mollie.com/v2"
	userAgent            = "mollie-gateway/1.0"
)

// APIError is the problem document Mollie returns for non-2xx responses.
// It wraps domain.ErrProvider.
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("Error executing API call (%d: %s): %s", e.Status, e.Title, e.Detail)
	if e.Field != "" {
		msg += ". Field: " + e.Field
	}
	return msg
}

func (e *APIError) Unwrap() error { return domain.ErrProvider }

// MollieClient implements adapter.PaymentProvider on the Mollie REST v2 API.
type MollieClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewMollieClient binds a client to one API key.
func NewMollieClient(apiKey, baseURL string, httpClient *http.Client) (*MollieClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key empty", domain.ErrProvider)
	}
	if baseURL == "" {
		baseURL = DefaultMollieBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &MollieClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}, nil
}

// NewMollieFactory returns a factory building clients that share one http.Client.
func NewMollieFactory(baseURL string, timeout time.Duration) adapter.ProviderFactory {
	hc := &http.Client{Timeout: timeout}
	return adapter.ProviderFactoryFunc(func(apiKey string) (adapter.PaymentProvider, error) {
		return NewMollieClient(apiKey, baseURL, hc)
	})
}

func (c *MollieClient) Name() string { return "mollie" }

func (c *MollieClient) CreatePayment(ctx context.Context, req model.PaymentRequest) (*model.Payment, error) {
	var p model.Payment
	if err := c.do(ctx, "create_payment", http.MethodPost, "/payments", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *MollieClient) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: payment id empty", domain.ErrProvider)
	}
	var p model.Payment
	if err := c.do(ctx, "get_payment", http.MethodGet, "/payments/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *MollieClient) RefundPayment(ctx context.Context, payment *model.Payment, req model.RefundRequest) (*model.Refund, error) {
	if payment == nil || payment.ID == "" {
		return nil, fmt.Errorf("%w: refund needs a payment", domain.ErrProvider)
	}
	var r model.Refund
	path := "/payments/" + url.PathEscape(payment.ID) + "/refunds"
	if err := c.do(ctx, "refund_payment", http.MethodPost, path, req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *MollieClient) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveProviderCall(op, start, err) }()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrProvider, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrProvider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrProvider, err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Detail == "" {
		apiErr.Title = http.StatusText(status)
		apiErr.Detail = strings.TrimSpace(string(raw))
		if apiErr.Detail == "" {
			apiErr.Detail = "empty response body"
		}
	}
	if apiErr.Status == 0 {
		apiErr.Status = status
	}
	return apiErr
}

// IsAPIError reports whether err carries a provider problem document.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
