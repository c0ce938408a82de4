// Package observability exposes Prometheus metrics for cache lookups and
// upstream provider calls.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup results
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

var (
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citycost_lookups_total",
			Help: "Total number of cost-of-living lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citycost_upstream_requests_total",
			Help: "Total number of upstream provider requests by provider and status",
		},
		[]string{"provider", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "citycost_upstream_request_duration_seconds",
			Help:    "Duration of upstream provider requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CacheWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citycost_cache_write_failures_total",
			Help: "Total number of cache writes that failed after a successful fetch",
		},
	)
)

// RecordLookup records the outcome of a lookup of the given kind ("city", "coordinates").
func RecordLookup(kind, result string) {
	LookupsTotal.WithLabelValues(kind, result).Inc()
}

// RecordUpstreamRequest records an upstream call. status is the HTTP status
// code, or "transport_error" when no response was received.
func RecordUpstreamRequest(provider, status string) {
	UpstreamRequestsTotal.WithLabelValues(provider, status).Inc()
}

// TimeUpstreamRequest returns a function that observes the elapsed request duration.
func TimeUpstreamRequest(provider string) func() {
	timer := prometheus.NewTimer(UpstreamRequestDuration.WithLabelValues(provider))
	return func() {
		timer.ObserveDuration()
	}
}

// RecordCacheWriteFailure records a failed cache write.
func RecordCacheWriteFailure() {
	CacheWriteFailures.Inc()
}
