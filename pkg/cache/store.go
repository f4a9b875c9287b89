package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested slug was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store maps slugs to upstream item identifiers.
type Store interface {
	// Get returns the identifier cached for key, or ErrCacheMiss.
	Get(ctx context.Context, key Key) (string, error)

	// Set records the identifier for key, replacing any previous one.
	Set(ctx context.Context, key Key, id string) error

	// Delete evicts key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error
}
