// internal/handlers/middleware/timeout.go
package middleware

import (
	"bytes"
	"cmp"
	"context"
	"maps"
	"net/http"
	"sync"
	"time"
)

// Timeout cancels the request context after timeout. Responses are
// buffered; a handler that has not finished by then gets a 504 and its
// later writes fail with http.ErrHandlerTimeout.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			buf := &bufferedResponse{header: make(http.Header)}
			finished := make(chan any, 1)
			go func() {
				defer func() { finished <- recover() }()
				next.ServeHTTP(buf, r.WithContext(ctx))
			}()

			select {
			case p := <-finished:
				if p != nil {
					panic(p)
				}
				buf.flushTo(w)
			case <-ctx.Done():
				buf.abandon()
				writeJSONError(w, http.StatusGatewayTimeout, "Request timeout")
			}
		})
	}
}

type bufferedResponse struct {
	mu        sync.Mutex
	header    http.Header
	body      bytes.Buffer
	status    int
	abandoned bool
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.abandoned && b.status == 0 {
		b.status = code
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.abandoned {
		return 0, http.ErrHandlerTimeout
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) abandon() {
	b.mu.Lock()
	b.abandoned = true
	b.mu.Unlock()
}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	maps.Copy(w.Header(), b.header)
	w.WriteHeader(cmp.Or(b.status, http.StatusOK))
	_, _ = w.Write(b.body.Bytes())
}
