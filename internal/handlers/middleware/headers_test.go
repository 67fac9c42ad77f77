// internal/handlers/middleware/headers_test.go
package middleware_test

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/preloved-be/internal/handlers/middleware"
	"github.com/ammerola/preloved-be/internal/pkg/metrics"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantStatus int
		wantOrigin string
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://shop.example", method: http.MethodGet, wantStatus: http.StatusOK, wantOrigin: "https://shop.example"},
		{name: "listed_origin", allowed: []string{"https://shop.example", "https://admin.example"}, origin: "https://admin.example", method: http.MethodGet, wantStatus: http.StatusOK, wantOrigin: "https://admin.example"},
		{name: "unlisted_origin", allowed: []string{"https://shop.example"}, origin: "https://evil.example", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "preflight", allowed: []string{"*"}, origin: "https://shop.example", method: http.MethodOptions, wantStatus: http.StatusNoContent, wantOrigin: "https://shop.example"},
		{name: "no_origin_header", allowed: []string{"*"}, method: http.MethodGet, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/items", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			middleware.CORS(tt.allowed)(ok).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "Origin", w.Header().Get("Vary"))
			if tt.wantOrigin != "" {
				allowHeaders := w.Header().Get("Access-Control-Allow-Headers")
				assert.Contains(t, allowHeaders, middleware.SessionHeader)
				assert.Contains(t, allowHeaders, middleware.AdminTokenHeader)
			}
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	plain := httptest.NewRecorder()
	middleware.SecureHeaders(ok).ServeHTTP(plain, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", plain.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", plain.Header().Get("X-Frame-Options"))
	assert.Empty(t, plain.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	secure := httptest.NewRecorder()
	middleware.SecureHeaders(ok).ServeHTTP(secure, req)
	assert.NotEmpty(t, secure.Header().Get("Strict-Transport-Security"))
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := middleware.RateLimit(ctx, 2, time.Second)(ok)
	hit := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, hit("127.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, hit("127.0.0.1:1235").Code)

	limited := hit("127.0.0.1:1236")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit("192.168.1.1:5678").Code, "other clients have their own bucket")
}

func TestCompression(t *testing.T) {
	payload := strings.Repeat("wool coat ", 200)
	h := middleware.Compression(256)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, payload)
	}))

	t.Run("gzip_accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/export", nil)
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		gz, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(gz)
		require.NoError(t, err)
		assert.Equal(t, payload, string(body))
	})

	t.Run("identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, payload, w.Body.String())
	})
}

func TestMetrics(t *testing.T) {
	m := metrics.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := middleware.Metrics(m)(mux)

	for _, path := range []string{"/api/v1/items/a", "/api/v1/items/b", "/nope"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	count, err := testutil.GatherAndCount(m.Registry(), "preloved_http_requests_total")
	require.NoError(t, err)
	// the matched route and "unmatched"
	assert.Equal(t, 2, count)
}
