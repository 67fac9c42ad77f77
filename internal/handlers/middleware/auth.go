// internal/handlers/middleware/auth.go
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ammerola/preloved-be/internal/core/ports"
)

// AdminTokenHeader is accepted as an alternative to a bearer token.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdmin rejects requests whose credential the authority does not accept.
func RequireAdmin(authority ports.AdminAuthority, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := adminToken(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				writeJSONError(w, http.StatusUnauthorized, "Admin credentials required")
				return
			}

			ok, err := authority.IsAdmin(r.Context(), token)
			if err != nil {
				l.ErrorContext(r.Context(), "admin authority failed",
					slog.String("error", err.Error()))
				writeJSONError(w, http.StatusInternalServerError, "Failed to verify credentials")
				return
			}
			if !ok {
				l.WarnContext(r.Context(), "rejected admin credential",
					slog.String("path", r.URL.Path))
				writeJSONError(w, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func adminToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(AdminTokenHeader))
}
