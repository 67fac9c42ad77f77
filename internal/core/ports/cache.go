// internal/core/ports/cache.go
package ports

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache.Load when key holds no value.
var ErrCacheMiss = errors.New("cache miss")

// Cache holds JSON-encoded values with a per-entry TTL. A zero ttl means
// the implementation's default.
type Cache interface {
	Load(ctx context.Context, key string, dest any) error
	Store(ctx context.Context, key string, value any, ttl time.Duration) error

	// Remember loads key into dest. On a miss it calls fill, stores the
	// result and decodes it into dest. Errors from fill are returned as-is
	// and are never cached.
	Remember(ctx context.Context, key string, ttl time.Duration, dest any, fill func(context.Context) (any, error)) error

	Evict(ctx context.Context, keys ...string) error
	EvictPrefix(ctx context.Context, prefix string) error

	Ping(ctx context.Context) error
}
