// Package metrics exposes the Prometheus collectors of the showcase service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// YouTube Data API calls, by operation and outcome
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "youtube_api_calls_total",
			Help: "Total number of YouTube Data API calls",
		},
		[]string{"operation", "status"},
	)

	VideosFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "showcase_videos_fetched_total",
			Help: "Total number of video records built from the YouTube Data API",
		},
	)

	ShowcaseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showcase_failures_total",
			Help: "Failed showcase builds by error kind",
		},
		[]string{"kind"},
	)

	// Credential lifecycle events: loaded, refreshed, persisted, consent
	CredentialEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credential_events_total",
			Help: "Credential lifecycle events",
		},
		[]string{"event"},
	)
)

// ObserveCall records the outcome of one upstream call
func ObserveCall(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	UpstreamCallsTotal.WithLabelValues(operation, status).Inc()
}
