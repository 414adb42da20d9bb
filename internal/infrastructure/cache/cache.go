// Package cache provides the string caches that sit in front of configuration lookups:
// an in-process L1, a Redis L2 shared across instances, and a tiered combination.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores string values by key
type Cache interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value for ttl; a zero ttl uses the cache default.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Key joins parts into a cache key, e.g. Key("sio_cms", "config", "ThemeId", "en-us")
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
