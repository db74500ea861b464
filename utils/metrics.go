package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// Remote service metrics
	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remote_call_duration_seconds",
			Help:    "Duration of calls to the hosted data and auth service",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "table"},
	)

	NotesOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notes_operations_total",
			Help: "Total number of note and folder operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status", "type"}, // success/failure, signin/signup/refresh/confirm
	)

	RemoteConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "remote_connected",
			Help: "1 when the last connectivity check reached the remote service",
		},
	)

	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_cache_operations_total",
			Help: "Session cache lookups by hit/miss",
		},
		[]string{"cache", "result"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by category and kind",
		},
		[]string{"category", "kind"},
	)
)

// TrackRemoteCall times one round trip to the remote service.
func TrackRemoteCall(operation, table string) *prometheus.Timer {
	return prometheus.NewTimer(RemoteCallDuration.WithLabelValues(operation, table))
}

func TrackNoteOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	NotesOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func TrackAuthAttempt(status, authType string) {
	AuthAttempts.WithLabelValues(status, authType).Inc()
}

func TrackCacheOperation(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheOperations.WithLabelValues(cache, result).Inc()
}

func SetConnected(connected bool) {
	if connected {
		RemoteConnected.Set(1)
		return
	}
	RemoteConnected.Set(0)
}

func TrackError(category, kind string) {
	ErrorsTotal.WithLabelValues(category, kind).Inc()
}
