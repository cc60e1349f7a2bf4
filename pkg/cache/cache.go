// Package cache stores encoded sprite artifacts between runs.
//
// Composing and encoding a large sheet dominates the cost of a run, while the
// placement that determines it is cheap. The pipeline therefore keys encoded
// images by the layout fingerprint plus a digest of the source pixels, and
// rendered metadata by the fingerprint plus the render options. An unchanged
// sheet is rebuilt from cache without touching the encoder.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for servers and CI fleets
//   - [NullCache]: stores nothing, used by --no-cache and in tests
//
// # Keys
//
// A [Keyer] builds namespaced keys. [NewScopedKeyer] prefixes another keyer
// so several projects can share one Redis without collisions.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind.
const (
	// ImageTTL is how long encoded sheet images are kept.
	ImageTTL = 7 * 24 * time.Hour

	// MetadataTTL is how long rendered metadata documents are kept.
	MetadataTTL = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// ImageKey identifies an encoded sheet image.
	ImageKey(fingerprint, sourceHash, format string) string

	// MetadataKey identifies a rendered metadata document.
	MetadataKey(fingerprint, format, optsHash string) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ImageKey returns "image:<hash>".
func (DefaultKeyer) ImageKey(fingerprint, sourceHash, format string) string {
	return hashKey("image", fingerprint, sourceHash, format)
}

// MetadataKey returns "meta:<hash>".
func (DefaultKeyer) MetadataKey(fingerprint, format, optsHash string) string {
	return hashKey("meta", fingerprint, format, optsHash)
}
