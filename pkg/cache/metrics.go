package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks slug cache hits by layer
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_slug_cache_hits_total",
			Help: "Total number of slug cache hits",
		},
		[]string{"layer"}, // "memory", "redis"
	)

	// CacheMisses tracks slug cache misses by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_slug_cache_misses_total",
			Help: "Total number of slug cache misses",
		},
		[]string{"layer"},
	)

	// CacheEvictions tracks removed entries, stale identifiers included
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_slug_cache_evictions_total",
			Help: "Total number of slug cache entries removed",
		},
		[]string{"layer"},
	)

	// CacheEntries tracks the number of entries held in process
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_slug_cache_entries",
			Help: "Current number of slug cache entries",
		},
		[]string{"layer"}, // "memory"
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_slug_cache_errors_total",
			Help: "Total number of slug cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
