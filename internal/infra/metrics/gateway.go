package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		linkRequestsTotal,
		refundRequestsTotal,
		callbackOutcomesTotal,
		paymentsAppliedTotal,
		providerCallDuration,
	)
}

var (
	// result: form|rejected_currency|provider_error
	linkRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_link_requests_total",
			Help: "Checkout link generations by module and result.",
		},
		[]string{"module", "result"},
	)

	// status: success|error
	refundRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_refund_requests_total",
			Help: "Refund requests by module and status.",
		},
		[]string{"module", "status"},
	)

	// outcome: paid|unsuccessful|pending|not_active|invalid_invoice|duplicate|locked|error
	callbackOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_callback_outcomes_total",
			Help: "Webhook deliveries by module and outcome.",
		},
		[]string{"module", "outcome"},
	)

	paymentsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_payments_applied_amount_total",
			Help: "Sum of amounts credited to invoices, labeled by currency.",
		},
		[]string{"currency"},
	)

	providerCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_provider_call_duration_seconds",
			Help:    "Latency of payment provider API calls.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation", "success"},
	)
)

func IncLink(module, result string) {
	linkRequestsTotal.WithLabelValues(norm(module), norm(result)).Inc()
}

func IncRefund(module, status string) {
	refundRequestsTotal.WithLabelValues(norm(module), norm(status)).Inc()
}

func IncCallback(module, outcome string) {
	callbackOutcomesTotal.WithLabelValues(norm(module), norm(outcome)).Inc()
}

func AddPaymentApplied(currency string, amount float64) {
	paymentsAppliedTotal.WithLabelValues(norm(currency)).Add(amount)
}

// ObserveProviderCall records one provider round trip started at start.
func ObserveProviderCall(operation string, start time.Time, err error) {
	success := "true"
	if err != nil {
		success = "false"
	}
	providerCallDuration.WithLabelValues(norm(operation), success).Observe(time.Since(start).Seconds())
}
