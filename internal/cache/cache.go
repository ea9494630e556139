// Package cache stores rendered artifacts (layer bitmaps, panel GeoJSON) so
// repeated requests for the same building, layer and options skip rendering.
//
// Three backends share one interface:
//
//   - [FileCache]: JSON entries under a directory, for single-node use
//   - [RedisCache]: a shared cache for several server instances
//   - [NullCache]: caching disabled
//
// [Open] picks a backend from a configuration string.
package cache

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeblew999/plat-solar/internal/errors"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Open builds a cache from spec:
//
//	""/"file"          FileCache under dataDir/cache
//	"none"             NullCache
//	"redis://..."      RedisCache
func Open(spec, dataDir string) (Cache, error) {
	switch {
	case spec == "" || spec == "file":
		c, err := NewFileCache(filepath.Join(dataDir, "cache"))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "open file cache")
		}
		return c, nil
	case spec == "none":
		return NewNullCache(), nil
	case strings.HasPrefix(spec, "redis://"), strings.HasPrefix(spec, "rediss://"):
		c, err := NewRedisCache(spec)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache %q (want file, none or redis://...)", spec)
}
