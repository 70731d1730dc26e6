package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ModuleName is the name the host registers this gateway module under.
const ModuleName = "Mollie"

// Setting keys understood by the Mollie module. They double as the
// configuration field keys shown to the merchant.
const (
	SettingFriendlyName           = "FriendlyName"
	SettingTransactionDescription = "transactionDescription"
	SettingLiveAPIKey             = "MollieLiveAPIKey"
	SettingTestAPIKey             = "MollieTestAPIKey"
	SettingTestMode               = "testmode"

	// host-maintained keys
	SettingType = "type"
	SettingName = "name"
)

// InvoiceIDPlaceholder is replaced with the invoice id in the description template.
const InvoiceIDPlaceholder = "{invoiceID}"

// FieldType is the kind of input the host renders for a config field.
type FieldType string

const (
	FieldTypeSystem FieldType = "System" // opaque display label
	FieldTypeText   FieldType = "text"
	FieldTypeYesNo  FieldType = "yesno"
)

// ConfigField describes one merchant-facing setting.
type ConfigField struct {
	Key          string    `json:"key"`
	FriendlyName string    `json:"friendly_name,omitempty"`
	Type         FieldType `json:"type"`
	Size         int       `json:"size,omitempty"`
	Value        string    `json:"value,omitempty"`
	Description  string    `json:"description,omitempty"`
}

// GatewayParams is the flat setting bag the host stores for a module.
type GatewayParams map[string]string

func (g GatewayParams) Get(key string) string { return g[key] }

// Active reports whether the host has the module switched on.
func (g GatewayParams) Active() bool { return g[SettingType] != "" }

// Name is the display name the host registered the module under.
func (g GatewayParams) Name() string {
	if n := g[SettingName]; n != "" {
		return n
	}
	return g[SettingFriendlyName]
}

func (g GatewayParams) TestMode() bool { return IsOn(g[SettingTestMode]) }

// APIKey picks the test or live key depending on the test mode flag.
func (g GatewayParams) APIKey() string {
	return SelectAPIKey(g.TestMode(), g[SettingLiveAPIKey], g[SettingTestAPIKey])
}

// IsOn interprets a host checkbox value.
func IsOn(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes", "y":
		return true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// Flag is a host checkbox forwarded in a request body. It decodes from a JSON
// bool, a number, or any string IsOn understands ("on", "yes", "true", "1").
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*f = false
	case bool:
		*f = Flag(t)
	case string:
		*f = Flag(IsOn(t))
	case float64:
		*f = t != 0
	default:
		return fmt.Errorf("invalid flag value %s", b)
	}
	return nil
}

func SelectAPIKey(testMode bool, liveKey, testKey string) string {
	if testMode {
		return testKey
	}
	return liveKey
}

// LinkParams is what the host passes when it needs a payment button for an invoice.
type LinkParams struct {
	Currency               string          `json:"currency" validate:"required"`
	Amount                 decimal.Decimal `json:"amount" validate:"gt=0"`
	InvoiceID              int64           `json:"invoiceid" validate:"required,gt=0"`
	SystemURL              string          `json:"systemurl" validate:"required,url"`
	TransactionDescription string          `json:"transactionDescription"`
	TestMode               Flag            `json:"testmode"`
	LiveAPIKey             string          `json:"MollieLiveAPIKey"`
	TestAPIKey             string          `json:"MollieTestAPIKey"`
	PayNowLabel            string          `json:"langpaynow"`
}

func (p LinkParams) APIKey() string { return SelectAPIKey(bool(p.TestMode), p.LiveAPIKey, p.TestAPIKey) }

// RefundParams is what the host passes when an administrator refunds a transaction.
type RefundParams struct {
	TransactionID string          `json:"transid" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency      string          `json:"currency"`
	TestMode      Flag            `json:"testmode"`
	LiveAPIKey    string          `json:"MollieLiveAPIKey"`
	TestAPIKey    string          `json:"MollieTestAPIKey"`
}

func (p RefundParams) APIKey() string { return SelectAPIKey(bool(p.TestMode), p.LiveAPIKey, p.TestAPIKey) }

type RefundStatus string

const (
	RefundStatusSuccess RefundStatus = "success"
	RefundStatusError   RefundStatus = "error"
)

// RefundResult is the normalized outcome handed back to the host.
// RawData is a map on success and the escaped error message on failure.
type RefundResult struct {
	Status        RefundStatus `json:"status"`
	TransactionID string       `json:"transid,omitempty"`
	RawData       any          `json:"rawdata"`
}

type GatewayLogStatus string

const (
	GatewayLogSuccessful   GatewayLogStatus = "Successful"
	GatewayLogUnsuccessful GatewayLogStatus = "Unsuccessful"
)

// GatewayLogEntry is a write-once record of a callback outcome.
type GatewayLogEntry struct {
	ID        string // ULID
	Gateway   string
	Data      map[string]string
	Status    GatewayLogStatus
	CreatedAt time.Time
}

// ModuleCallLog is a write-once diagnostic record of a failed provider call.
type ModuleCallLog struct {
	ID            int64
	Module        string
	Action        string
	Request       string
	Response      string
	ProcessedData string
	CreatedAt     time.Time
}
