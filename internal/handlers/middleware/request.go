// internal/handlers/middleware/request.go
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/preloved-be/internal/pkg/logger"
)

const (
	RequestIDHeader = "X-Request-ID"
	TraceIDHeader   = "X-Trace-ID"
	// SessionHeader scopes last-write-wins browsing to one client session.
	SessionHeader = "X-Session-ID"

	slowRequest = 5 * time.Second
)

// RequestID propagates an upstream X-Request-ID or mints one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := headerOrUUID(r, RequestIDHeader)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithValue(r.Context(), logger.ContextKeyRequestID, id)))
	})
}

// RequestIDFromContext returns the ID set by RequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(logger.ContextKeyRequestID).(string)
	return id
}

// Logger puts request fields on the context for every record logged while
// serving, then logs one access line. 5xx log at error; 4xx and slow
// requests at warn.
func Logger(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			traceID := headerOrUUID(r, TraceIDHeader)
			ip := clientIP(r)

			fields := []struct {
				key   logger.ContextKey
				value string
			}{
				{logger.ContextKeyTraceID, traceID},
				{logger.ContextKeyClientIP, ip},
				{logger.ContextKeyUserAgent, r.UserAgent()},
				{logger.ContextKeyMethod, r.Method},
				{logger.ContextKeyPath, r.URL.Path},
				{logger.ContextKeySessionID, r.Header.Get(SessionHeader)},
			}
			ctx := r.Context()
			for _, f := range fields {
				if f.value != "" {
					ctx = logger.WithValue(ctx, f.key, f.value)
				}
			}

			w.Header().Set(TraceIDHeader, traceID)
			rec := record(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			elapsed := time.Since(start)
			slow := elapsed > slowRequest
			l.Log(ctx, accessLevel(rec.Status(), slow), "request_completed",
				slog.Group("request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("query", r.URL.RawQuery),
					slog.String("client_ip", ip)),
				slog.Group("response",
					slog.Int("status", rec.Status()),
					slog.Int("bytes", rec.bytes),
					slog.Duration("duration", elapsed)),
				slog.Bool("slow_request", slow))
		})
	}
}

func accessLevel(status int, slow bool) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest || slow:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func headerOrUUID(r *http.Request, header string) string {
	if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
		return v
	}
	return uuid.NewString()
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
