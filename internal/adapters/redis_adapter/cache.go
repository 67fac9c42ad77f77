// internal/adapters/redis_adapter/cache.go
package redis_adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/ammerola/preloved-be/internal/core/ports"
)

// evictBatch bounds the keys matched per SCAN round trip and unlinked per
// pipeline.
const evictBatch = 500

// Cache keeps JSON documents in Redis. Concurrent misses on one key share
// a single fill.
type Cache struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
	logger     *slog.Logger
	fills      singleflight.Group
}

var _ ports.Cache = (*Cache)(nil)

func NewCache(client redis.UniversalClient, defaultTTL time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client:     client,
		defaultTTL: defaultTTL,
		logger:     logger.With(slog.String("component", "cache")),
	}
}

func (c *Cache) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return c.defaultTTL
	}
	return ttl
}

// Load decodes the document at key into dest, or returns ports.ErrCacheMiss.
func (c *Cache) Load(ctx context.Context, key string, dest any) error {
	raw, err := c.read(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache %s: decode: %w", key, err)
	}
	return nil
}

func (c *Cache) read(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ports.ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("cache %s: get: %w", key, err)
	}
	return raw, nil
}

func (c *Cache) Store(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache %s: encode: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl(ttl)).Err(); err != nil {
		return fmt.Errorf("cache %s: set: %w", key, err)
	}
	return nil
}

// Remember returns the cached document at key or fills it. A failed write
// after a successful fill is logged and the filled value still returned.
// A read error other than a miss is returned without calling fill.
func (c *Cache) Remember(ctx context.Context, key string, ttl time.Duration, dest any, fill func(context.Context) (any, error)) error {
	raw, err := c.read(ctx, key)
	if errors.Is(err, ports.ErrCacheMiss) {
		var v any
		v, err, _ = c.fills.Do(key, func() (any, error) {
			return c.fill(ctx, key, c.ttl(ttl), fill)
		})
		if err == nil {
			raw = v.([]byte)
		}
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache %s: decode: %w", key, err)
	}
	return nil
}

func (c *Cache) fill(ctx context.Context, key string, ttl time.Duration, fill func(context.Context) (any, error)) ([]byte, error) {
	value, err := fill(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cache %s: encode: %w", key, err)
	}

	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to store filled value",
			slog.String("key", key),
			slog.String("error", err.Error()))
	} else {
		c.logger.DebugContext(ctx, "cache filled",
			slog.String("key", key),
			slog.Int("bytes", len(raw)),
			slog.Duration("ttl", ttl))
	}
	return raw, nil
}

func (c *Cache) Evict(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Unlink(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache evict %d keys: %w", len(keys), err)
	}
	return nil
}

// EvictPrefix unlinks every key starting with prefix, one SCAN page at a
// time.
func (c *Cache) EvictPrefix(ctx context.Context, prefix string) error {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", evictBatch).Result()
		if err != nil {
			return fmt.Errorf("cache scan %s*: %w", prefix, err)
		}
		if err := c.Evict(ctx, keys...); err != nil {
			return err
		}
		total += len(keys)

		if cursor = next; cursor == 0 {
			break
		}
	}

	c.logger.DebugContext(ctx, "cache prefix evicted",
		slog.String("prefix", prefix),
		slog.Int("keys", total))
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
