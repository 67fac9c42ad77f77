// internal/adapters/redis_adapter/cache_test.go
package redis_adapter_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/preloved-be/internal/adapters/redis_adapter"
	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
	"github.com/ammerola/preloved-be/internal/pkg/config"
	"github.com/ammerola/preloved-be/test/helpers"
)

func newCache(t *testing.T) (*redis_adapter.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis_adapter.NewCache(client, 5*time.Minute, helpers.TestLogger()), mr
}

func TestCache_StoreAndLoad(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	jacket := helpers.CreateTestItem(func(i *domain.Item) {
		i.ID = "item-1"
		i.Sizes = []domain.Size{domain.SizeS, domain.SizeM}
		orig := int64(120)
		i.OriginalPrice = &orig
	})
	require.NoError(t, cache.Store(ctx, "catalog:snapshot", []*domain.Item{jacket}, 0))

	var items []*domain.Item
	require.NoError(t, cache.Load(ctx, "catalog:snapshot", &items))
	require.Len(t, items, 1)
	assert.Equal(t, jacket.ID, items[0].ID)
	assert.Equal(t, jacket.Sizes, items[0].Sizes)
	require.NotNil(t, items[0].OriginalPrice)
	assert.Equal(t, int64(120), *items[0].OriginalPrice)
	assert.True(t, jacket.DateAdded.Equal(items[0].DateAdded))

	assert.Equal(t, 5*time.Minute, mr.TTL("catalog:snapshot"), "zero ttl uses the default")
}

func TestCache_Load(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(mr *miniredis.Miniredis)
		wantErr error
	}{
		{
			name:    "missing_key",
			setup:   func(*miniredis.Miniredis) {},
			wantErr: ports.ErrCacheMiss,
		},
		{
			name: "expired_key",
			setup: func(mr *miniredis.Miniredis) {
				require.NoError(t, mr.Set("k", `"v"`))
				mr.SetTTL("k", time.Second)
				mr.FastForward(2 * time.Second)
			},
			wantErr: ports.ErrCacheMiss,
		},
		{
			name: "corrupt_document",
			setup: func(mr *miniredis.Miniredis) {
				require.NoError(t, mr.Set("k", "{not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, mr := newCache(t)
			tt.setup(mr)

			var got string
			err := cache.Load(ctx, "k", &got)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NotErrorIs(t, err, ports.ErrCacheMiss)
			}
		})
	}
}

func TestCache_Evict(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	for _, key := range []string{"scan:estimate:a", "scan:estimate:b", "catalog:snapshot"} {
		require.NoError(t, cache.Store(ctx, key, "v", time.Minute))
	}

	require.NoError(t, cache.Evict(ctx, "scan:estimate:a", "scan:estimate:b"))
	require.NoError(t, cache.Evict(ctx))

	assert.False(t, mr.Exists("scan:estimate:a"))
	assert.False(t, mr.Exists("scan:estimate:b"))
	assert.True(t, mr.Exists("catalog:snapshot"))
}

func TestCache_EvictPrefix(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	// more than one SCAN page
	for i := 0; i < 1200; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("catalog:facets:%04d", i), "{}"))
	}
	require.NoError(t, mr.Set("catalog:snapshot", "[]"))
	require.NoError(t, mr.Set("scan:estimate:1", "{}"))

	require.NoError(t, cache.EvictPrefix(ctx, "catalog:facets:"))

	assert.Equal(t, []string{"catalog:snapshot", "scan:estimate:1"}, mr.Keys())

	// nothing left to match
	require.NoError(t, cache.EvictPrefix(ctx, "catalog:facets:"))
}

func TestCache_Remember(t *testing.T) {
	ctx := context.Background()

	t.Run("fills_once_then_hits", func(t *testing.T) {
		cache, mr := newCache(t)
		var fills int
		fill := func(context.Context) (any, error) {
			fills++
			return []*domain.Item{helpers.CreateTestItem(func(i *domain.Item) { i.ID = "a" })}, nil
		}

		var first []*domain.Item
		require.NoError(t, cache.Remember(ctx, "catalog:snapshot", time.Minute, &first, fill))
		require.Len(t, first, 1)
		assert.Equal(t, "a", first[0].ID)

		var second []*domain.Item
		require.NoError(t, cache.Remember(ctx, "catalog:snapshot", time.Minute, &second, fill))
		assert.Equal(t, "a", second[0].ID)
		assert.Equal(t, 1, fills)
		assert.Equal(t, time.Minute, mr.TTL("catalog:snapshot"))
	})

	t.Run("fill_error_is_not_cached", func(t *testing.T) {
		cache, mr := newCache(t)
		boom := errors.New("database down")

		var dest []*domain.Item
		err := cache.Remember(ctx, "catalog:snapshot", time.Minute, &dest, func(context.Context) (any, error) {
			return nil, boom
		})

		assert.ErrorIs(t, err, boom)
		assert.False(t, mr.Exists("catalog:snapshot"))
	})

	t.Run("redis_down_skips_fill", func(t *testing.T) {
		cache, mr := newCache(t)
		mr.Close()

		called := false
		var dest string
		err := cache.Remember(ctx, "k", time.Minute, &dest, func(context.Context) (any, error) {
			called = true
			return "v", nil
		})

		require.Error(t, err)
		assert.NotErrorIs(t, err, ports.ErrCacheMiss)
		assert.False(t, called)
	})

	t.Run("concurrent_misses_share_a_fill", func(t *testing.T) {
		cache, _ := newCache(t)
		var fills atomic.Int32
		release := make(chan struct{})

		fill := func(context.Context) (any, error) {
			fills.Add(1)
			<-release
			return map[string]int{"tops": 3}, nil
		}

		var wg sync.WaitGroup
		results := make([]map[string]int, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, cache.Remember(ctx, "catalog:facets:x", time.Minute, &results[i], fill))
			}(i)
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), fills.Load())
		for _, r := range results {
			assert.Equal(t, map[string]int{"tops": 3}, r)
		}
	})
}

func TestCache_Ping(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	require.NoError(t, cache.Ping(ctx))

	mr.Close()
	assert.Error(t, cache.Ping(ctx))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, _ := strings.Cut(mr.Addr(), ":")

	client, err := redis_adapter.Connect(context.Background(), config.RedisConfig{
		Host:         host,
		Port:         port,
		PoolSize:     10,
		MinIdleConns: 5,
	}, redis_adapter.WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 2, client.Options().PoolSize)
	assert.Equal(t, 2, client.Options().MinIdleConns)

	mr.Close()
	_, err = redis_adapter.Connect(context.Background(), config.RedisConfig{Host: host, Port: port})
	assert.Error(t, err)
}
