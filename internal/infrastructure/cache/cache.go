package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is a tenant-scoped byte cache. Implementations must treat a
// non-positive TTL as "do not cache": Set becomes a no-op and the key is
// never served.
type Store interface {
	// Get returns the cached payload for key, or (nil, false) on a miss.
	// Backend failures are reported as misses so callers always fall
	// through to the source of truth.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores payload under key for ttl. A ttl <= 0 drops the write.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, keys ...string)

	// FlushAll drops every cached entry.
	FlushAll(ctx context.Context)

	// Close releases background resources. Idempotent.
	Close() error
}

// Key builds a cache key scoped to a tenant. All cached views use this
// scheme so invalidation can address them per tenant.
func Key(tenantID string, parts ...string) string {
	key := "t:" + tenantID
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// GlobalKey builds a cache key for cross-tenant views.
func GlobalKey(parts ...string) string {
	key := "global"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Stats reports hit/miss counters for a Store backend.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

func (s Stats) String() string {
	return fmt.Sprintf("hits=%d misses=%d size=%d", s.Hits, s.Misses, s.Size)
}
