package cache

import (
	"strings"
)

// keyPrefix is the root of every key written by this package.
const keyPrefix = "catalog"

// Key identifies one slug mapping.
type Key struct {
	// Namespace separates stores sharing one backend, typically the
	// upstream store identifier. Optional.
	Namespace string

	// Slug is normalized by String, callers may pass it as received.
	Slug string
}

// NormalizeSlug lower-cases and trims a slug for lookups.
func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// String generates a deterministic key string.
// Format: catalog[:namespace]:slug:<slug>
//
// Example:
//
//	catalog:store_01J9S3:slug:ford-fiesta
func (k Key) String() string {
	parts := []string{keyPrefix}

	if ns := strings.Trim(strings.TrimSpace(k.Namespace), ":"); ns != "" {
		parts = append(parts, ns)
	}

	parts = append(parts, "slug", NormalizeSlug(k.Slug))

	return strings.Join(parts, ":")
}
