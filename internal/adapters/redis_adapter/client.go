// internal/adapters/redis_adapter/client.go
package redis_adapter

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/preloved-be/internal/pkg/config"
)

// Options maps the application's redis settings onto client options.
func Options(c config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:            c.Addr(),
		Password:        c.Password,
		DB:              c.DB,
		MaxRetries:      c.MaxRetries,
		MinRetryBackoff: c.MinRetryBackoff,
		MaxRetryBackoff: c.MaxRetryBackoff,
		DialTimeout:     c.DialTimeout,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		PoolTimeout:     c.PoolTimeout,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
	}
}

// Connect opens a client and pings it. opts may adjust the options first,
// e.g. to shrink the pool for a batch tool.
func Connect(ctx context.Context, c config.RedisConfig, opts ...func(*redis.Options)) (*redis.Client, error) {
	o := Options(c)
	for _, fn := range opts {
		fn(o)
	}

	client := redis.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", o.Addr, err)
	}
	return client, nil
}

// WithPoolSize caps the connection pool.
func WithPoolSize(n int) func(*redis.Options) {
	return func(o *redis.Options) {
		o.PoolSize = n
		if o.MinIdleConns > n {
			o.MinIdleConns = n
		}
	}
}
