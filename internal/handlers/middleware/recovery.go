// internal/handlers/middleware/recovery.go
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery turns a handler panic into a 500 carrying the request id.
// http.ErrAbortHandler is re-raised so the server can drop the connection.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if err, ok := p.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(p)
				}

				l.ErrorContext(r.Context(), "panic recovered",
					slog.String("panic", fmt.Sprint(p)),
					slog.String("stack", string(debug.Stack())))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = fmt.Fprintf(w, `{"error":"Internal Server Error","request_id":%q}`+"\n",
					RequestIDFromContext(r.Context()))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
