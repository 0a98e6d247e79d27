// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Collectors are registered with the default registry through promauto, so
// importing the package is enough to expose them.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickflix_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pickflix_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickflix_catalog_requests_total",
			Help: "Catalog API calls by endpoint and outcome",
		},
		[]string{"endpoint", "result"}, // result: success, error, rejected
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pickflix_catalog_request_duration_seconds",
			Help:    "Catalog API latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pickflix_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickflix_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	WatchlistOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickflix_watchlist_operations_total",
			Help: "Watchlist mutations by operation and outcome",
		},
		[]string{"op", "result"}, // op: add, remove; result: ok, duplicate, not_found, error
	)

	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickflix_auth_attempts_total",
			Help: "Registration and login attempts by outcome",
		},
		[]string{"action", "result"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickflix_events_published_total",
			Help: "Watchlist activity events handed to the broker",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordCatalogRequest records one catalog call.
func RecordCatalogRequest(endpoint, result string, d time.Duration) {
	CatalogRequests.WithLabelValues(endpoint, result).Inc()
	CatalogRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordWatchlistOp records a watchlist add or remove.
func RecordWatchlistOp(op, result string) {
	WatchlistOps.WithLabelValues(op, result).Inc()
}

// RecordAuthAttempt records a register or login outcome.
func RecordAuthAttempt(action string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	AuthAttempts.WithLabelValues(action, result).Inc()
}
