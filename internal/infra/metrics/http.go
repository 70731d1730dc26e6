package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(httpRequestDuration, rateLimitedTotal) }

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP handler latency by route pattern and status code.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "code"},
	)

	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected with 429, by route pattern.",
		},
		[]string{"route"},
	)
)

func ObserveHTTP(route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

func IncRateLimited(route string) {
	if route == "" {
		route = "unmatched"
	}
	rateLimitedTotal.WithLabelValues(route).Inc()
}
