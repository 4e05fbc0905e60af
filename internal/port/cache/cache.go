// Package cache defines the port interface for caching.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching.
// A miss is reported as ok=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TenantKey is the cache key of a tenant registry entry.
func TenantKey(name string) string {
	return "tenant:" + name
}

// Local is implemented by caches with an in-process tier. DeleteLocal evicts
// key from that tier only, leaving shared tiers untouched; it is used when
// another replica already removed the shared entry.
type Local interface {
	DeleteLocal(ctx context.Context, key string) error
}
