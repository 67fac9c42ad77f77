// internal/handlers/middleware/metrics.go
package middleware

import (
	"net/http"
	"time"

	"github.com/ammerola/preloved-be/internal/pkg/metrics"
)

// Metrics records request counts and latency per matched route pattern.
// It must wrap the ServeMux directly so r.Pattern is set afterwards.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(r.Method, route, rec.Status(), time.Since(start))
		})
	}
}
