package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mollie-gateway/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusOpen       PaymentStatus = "open"       // created, customer has not completed checkout
	PaymentStatusPending    PaymentStatus = "pending"    // method started, result not known yet
	PaymentStatusAuthorized PaymentStatus = "authorized" // authorized, awaiting capture
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusCanceled   PaymentStatus = "canceled"
	PaymentStatusExpired    PaymentStatus = "expired"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Amount is the provider's money representation: a currency code and a
// decimal string with exactly the currency's number of decimals.
type Amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// NewAmount formats value with the precision of currency.
func NewAmount(currency string, value decimal.Decimal) Amount {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	return Amount{Currency: cur, Value: value.StringFixed(CurrencyPrecision(cur))}
}

// ExactAmount is NewAmount without rounding: a value with more decimals than
// the currency allows is rejected, never sent as a different sum.
func ExactAmount(currency string, value decimal.Decimal) (Amount, error) {
	a := NewAmount(currency, value)
	if !value.Equal(a.Decimal()) {
		return Amount{}, fmt.Errorf("%w: %s %s", domain.ErrAmountPrecision, value.String(), a.Currency)
	}
	return a, nil
}

// Decimal parses Value; an unparsable value yields zero.
func (a Amount) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(a.Value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CurrencyPrecision returns the number of minor-unit decimals for an ISO 4217 code.
func CurrencyPrecision(currency string) int32 {
	switch strings.ToUpper(currency) {
	case "JPY", "ISK", "KRW", "CLP", "HUF", "TWD":
		return 0
	case "BHD", "KWD", "JOD", "OMR", "TND":
		return 3
	default:
		return 2
	}
}

type Link struct {
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

// Payment mirrors the provider payment resource. It is never mutated locally;
// the current state is always re-fetched.
type Payment struct {
	ID          string           `json:"id"`
	Mode        string           `json:"mode,omitempty"`
	Status      PaymentStatus    `json:"status"`
	Amount      Amount           `json:"amount"`
	Description string           `json:"description,omitempty"`
	Method      *string          `json:"method,omitempty"`
	Locale      *string          `json:"locale,omitempty"`
	Metadata    json.RawMessage  `json:"metadata,omitempty"`
	Details     json.RawMessage  `json:"details,omitempty"`
	RedirectURL string           `json:"redirectUrl,omitempty"`
	WebhookURL  string           `json:"webhookUrl,omitempty"`
	CreatedAt   *time.Time       `json:"createdAt,omitempty"`
	PaidAt      *time.Time       `json:"paidAt,omitempty"`
	CanceledAt  *time.Time       `json:"canceledAt,omitempty"`
	ExpiredAt   *time.Time       `json:"expiredAt,omitempty"`
	FailedAt    *time.Time       `json:"failedAt,omitempty"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
	Links       map[string]*Link `json:"_links,omitempty"`
}

func (p *Payment) IsPaid() bool { return p.Status == PaymentStatusPaid }

func (p *Payment) IsOpen() bool { return p.Status == PaymentStatusOpen }

// IsTerminalUnpaid reports a final state in which no money was received.
func (p *Payment) IsTerminalUnpaid() bool {
	switch p.Status {
	case PaymentStatusCanceled, PaymentStatusExpired, PaymentStatusFailed:
		return true
	}
	return false
}

// CheckoutURL returns the hosted checkout link, empty when the provider sent none.
func (p *Payment) CheckoutURL() string {
	if l, ok := p.Links["checkout"]; ok && l != nil {
		return l.Href
	}
	return ""
}

// InvoiceID extracts metadata.invoiceId, accepting either a JSON string or number.
func (p *Payment) InvoiceID() (int64, bool) {
	if len(p.Metadata) == 0 {
		return 0, false
	}
	var meta struct {
		InvoiceID json.RawMessage `json:"invoiceId"`
	}
	if err := json.Unmarshal(p.Metadata, &meta); err != nil || len(meta.InvoiceID) == 0 {
		return 0, false
	}
	raw := strings.Trim(string(meta.InvoiceID), `"`)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// PaymentRequest is the body sent to create a payment.
type PaymentRequest struct {
	Amount      Amount         `json:"amount"`
	Description string         `json:"description"`
	RedirectURL string         `json:"redirectUrl"`
	WebhookURL  string         `json:"webhookUrl,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type Refund struct {
	ID          string     `json:"id"`
	PaymentID   string     `json:"paymentId,omitempty"`
	Amount      Amount     `json:"amount"`
	Status      string     `json:"status,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

type RefundRequest struct {
	Amount      Amount `json:"amount"`
	Description string `json:"description,omitempty"`
}

// PaymentSnapshot is the best-effort view of a payment written to the module
// log when a callback fails. Fields that could not be obtained are omitted.
type PaymentSnapshot struct {
	ID               string           `json:"id,omitempty"`
	Mode             string           `json:"mode,omitempty"`
	CreatedAt        *time.Time       `json:"createdAt,omitempty"`
	Status           PaymentStatus    `json:"status,omitempty"`
	PaidAt           *time.Time       `json:"paidAt,omitempty"`
	CanceledAt       *time.Time       `json:"canceledAt,omitempty"`
	ExpiredAt        *time.Time       `json:"expiredAt,omitempty"`
	ExpiresAt        *time.Time       `json:"expiresAt,omitempty"`
	Amount           string           `json:"amount,omitempty"`
	Description      string           `json:"description,omitempty"`
	Method           string           `json:"method,omitempty"`
	Metadata         json.RawMessage  `json:"metadata,omitempty"`
	Locale           string           `json:"locale,omitempty"`
	Details          json.RawMessage  `json:"details,omitempty"`
	Links            map[string]*Link `json:"links,omitempty"`
	ExceptionMessage string           `json:"exceptionMessage"`
}

// SnapshotOf extracts whatever is known about p. A nil payment yields a
// snapshot carrying only the error message.
func SnapshotOf(p *Payment, err error) PaymentSnapshot {
	s := PaymentSnapshot{}
	if err != nil {
		s.ExceptionMessage = err.Error()
	}
	if p == nil {
		return s
	}
	s.ID = p.ID
	s.Mode = p.Mode
	s.CreatedAt = p.CreatedAt
	s.Status = p.Status
	s.PaidAt = p.PaidAt
	s.CanceledAt = p.CanceledAt
	s.ExpiredAt = p.ExpiredAt
	s.ExpiresAt = p.ExpiresAt
	s.Amount = p.Amount.Value
	s.Description = p.Description
	if p.Method != nil {
		s.Method = *p.Method
	}
	s.Metadata = p.Metadata
	if p.Locale != nil {
		s.Locale = *p.Locale
	}
	s.Details = p.Details
	s.Links = p.Links
	return s
}
