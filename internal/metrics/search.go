package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by the service.
const Namespace = "esquery"

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Search backend Prometheus metrics.
var (
	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Search backend request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "backend_requests_total",
			Help:      "Total number of search backend requests",
		},
		[]string{"operation", "status"},
	)

	SearchDroppedRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_dropped_records_total",
			Help:      "Hits dropped because the record was missing or filtered by a formatter",
		},
		[]string{"type"},
	)

	HandleReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "handle_reloads_total",
			Help:      "Backend connection replacements",
		},
		[]string{"status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(SearchDroppedRecordsTotal)
	prometheus.MustRegister(HandleReloadsTotal)
	searchMetricsRegistered = true
}

// ObserveBackend records one backend call that started at start.
func ObserveBackend(operation string, start time.Time, err error) {
	BackendRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	BackendRequestsTotal.WithLabelValues(operation, StatusOf(err)).Inc()
}

// ObserveReload records one handle replacement attempt.
func ObserveReload(err error) {
	HandleReloadsTotal.WithLabelValues(StatusOf(err)).Inc()
}

// StatusOf maps an operation error to the status label.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
