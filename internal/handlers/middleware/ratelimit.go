// internal/handlers/middleware/ratelimit.go
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdle = 10 * time.Minute

// clientLimits keeps one token bucket per client IP.
type clientLimits struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*bucket
}

type bucket struct {
	*rate.Limiter
	seen time.Time
}

func (c *clientLimits) take(ip string, now time.Time) time.Duration {
	c.mu.Lock()
	b, ok := c.buckets[ip]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(c.limit, c.burst)}
		c.buckets[ip] = b
	}
	b.seen = now
	c.mu.Unlock()

	res := b.ReserveN(now, 1)
	if !res.OK() {
		return limiterIdle
	}
	wait := res.DelayFrom(now)
	if wait > 0 {
		res.CancelAt(now)
	}
	return wait
}

func (c *clientLimits) forget(before time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ip, b := range c.buckets {
		if b.seen.Before(before) {
			delete(c.buckets, ip)
		}
	}
}

// RateLimit allows requests per window for each client IP, answering 429
// with Retry-After once the bucket is empty. Buckets idle for ten minutes
// are dropped by a sweeper that stops with ctx.
func RateLimit(ctx context.Context, requests int, window time.Duration) func(http.Handler) http.Handler {
	requests = max(requests, 1)
	limits := &clientLimits{
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		buckets: make(map[string]*bucket),
	}

	go func() {
		t := time.NewTicker(limiterIdle)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				limits.forget(now.Add(-limiterIdle))
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wait := limits.take(clientIP(r), time.Now()); wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
