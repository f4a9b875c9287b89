// Package cache stores slug → item identifier mappings for the catalog
// client.
//
// The cache is a lookup hint, never a source of truth: a cached identifier
// that no longer resolves is deleted by the caller and the mapping rebuilt
// from the upstream listing.
//
// Two stores implement Store:
//
//   - MemoryStore: a mutex-guarded map private to one process. Safe for
//     concurrent use by any number of requests sharing a client.
//   - RedisStore: a Redis backend shared between processes, with an
//     optional TTL per entry.
//
// # Basic Usage
//
//	// In-process
//	store := cache.NewMemoryStore()
//
//	// Shared across replicas
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewRedisStore(redisClient, 24*time.Hour)
//
//	key := cache.Key{Namespace: "store_01J9S3", Slug: "ford-fiesta"}
//	if err := store.Set(ctx, key, "prod_123"); err != nil {
//		return err
//	}
//
//	id, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// scan the listing instead
//	}
//
// # Metrics
//
// Both stores export Prometheus metrics labelled by layer ("memory", "redis"):
//
//   - catalog_slug_cache_hits_total{layer}
//   - catalog_slug_cache_misses_total{layer}
//   - catalog_slug_cache_evictions_total{layer}
//   - catalog_slug_cache_entries{layer} (memory only)
//   - catalog_slug_cache_errors_total{operation}
package cache
