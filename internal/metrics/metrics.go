// Package metrics holds the Prometheus collectors for the proxy.
//
// Collectors register with the default registry on import and are served by
// promhttp on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API surface
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytmp_http_request_duration_seconds",
			Help:    "Duration of proxy HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_http_requests_total",
			Help: "Total number of proxy HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytmp_http_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	// Failure taxonomy
	ClassifiedErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_classified_errors_total",
			Help: "Errors returned to clients by operation and kind",
		},
		[]string{"operation", "kind", "status"},
	)

	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_fallbacks_total",
			Help: "Degraded retries by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Upstream
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytmp_upstream_request_duration_seconds",
			Help:    "Duration of InnerTube calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ytmp_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		},
		[]string{"name", "result"},
	)

	// Health
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytmp_upstream_health",
			Help: "Last probe result (0=unhealthy, 1=degraded, 2=healthy)",
		},
	)

	HealthProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytmp_health_probe_duration_seconds",
			Help:    "Duration of upstream health probes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	APIRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	APIRequestsTotal.WithLabelValues(method, route, code).Inc()
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordClassifiedError counts an error envelope sent to a client.
func RecordClassifiedError(operation, kind string, status int) {
	ClassifiedErrors.WithLabelValues(operation, kind, strconv.Itoa(status)).Inc()
}

// RecordFallback counts a degraded retry. Outcome is "recovered" or "failed".
func RecordFallback(operation string, recovered bool) {
	outcome := "failed"
	if recovered {
		outcome = "recovered"
	}
	Fallbacks.WithLabelValues(operation, outcome).Inc()
}

// RecordUpstream records one InnerTube call.
func RecordUpstream(endpoint string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequestDuration.WithLabelValues(endpoint, outcome).Observe(duration.Seconds())
}

// RecordBreakerTransition updates the state gauge and transition counter.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerState.WithLabelValues(name).Set(BreakerStateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordBreakerResult counts a request outcome. Result is "success", "failure" or "rejected".
func RecordBreakerResult(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// BreakerStateValue maps a gobreaker state name to the gauge value.
func BreakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// SetHealth records the last probe status.
func SetHealth(status string, duration time.Duration) {
	switch status {
	case "healthy":
		HealthStatus.Set(2)
	case "degraded":
		HealthStatus.Set(1)
	default:
		HealthStatus.Set(0)
	}
	HealthProbeDuration.Observe(duration.Seconds())
}
