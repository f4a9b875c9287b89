package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for catalog client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total upstream requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Upstream call duration in seconds by endpoint, retries included",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})

	degradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_degraded_total",
		Help: "Listing calls answered with an empty result after upstream failure",
	}, []string{"operation"})

	slugLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_slug_lookups_total",
		Help: "Slug lookups by outcome",
	}, []string{"outcome"}) // "cache_hit", "scan_hit", "miss"

	slugStaleTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_slug_stale_total",
		Help: "Cached slug identifiers that no longer resolved",
	})

	slugScanPages = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_slug_scan_pages",
		Help:    "Listing pages visited per slug scan",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 50, 100},
	})
)
