// Package metrics exposes the Prometheus registry used by the catalog client.
// Metrics are defined in their respective packages (catalog, cache)
// to maintain modularity and avoid circular dependencies.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the catalog client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/catalog):
//   - catalog_requests_total{endpoint, status} (Counter): Upstream requests by endpoint and HTTP status
//   - catalog_request_duration_seconds{endpoint} (Histogram): Call duration by endpoint, retries included
//   - catalog_errors_total{class} (Counter): Errors by class (client, server, network, unknown, decode)
//   - catalog_degraded_total{operation} (Counter): Listings answered empty after upstream failure
//
// Retry Metrics (pkg/catalog):
//   - catalog_retries_total{error_class} (Counter): Retry attempts by error class
//   - catalog_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - catalog_retry_exhausted_total{error_class} (Counter): Calls that exhausted all attempts
//
// Slug Metrics (pkg/catalog):
//   - catalog_slug_lookups_total{outcome} (Counter): Lookups by outcome (cache_hit, scan_hit, miss)
//   - catalog_slug_stale_total (Counter): Cached identifiers that no longer resolved
//   - catalog_slug_scan_pages (Histogram): Listing pages visited per scan
//
// Cache Metrics (pkg/cache):
//   - catalog_slug_cache_hits_total{layer} (Counter): Slug cache hits by layer (memory, redis)
//   - catalog_slug_cache_misses_total{layer} (Counter): Slug cache misses by layer
//   - catalog_slug_cache_evictions_total{layer} (Counter): Entries removed
//   - catalog_slug_cache_entries{layer} (Gauge): Entries held by the in-memory store
//   - catalog_slug_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Slug Cache Hit Rate
//   sum(rate(catalog_slug_lookups_total{outcome="cache_hit"}[5m])) /
//   sum(rate(catalog_slug_lookups_total[5m]))
//
//   # Degraded Listings
//   rate(catalog_degraded_total[5m]) > 0
//
//   # Request Error Rate
//   rate(catalog_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
