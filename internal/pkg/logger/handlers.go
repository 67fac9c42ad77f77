// internal/pkg/logger/handlers.go
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// contextHandler appends the ContextKey values found in ctx.
type contextHandler struct {
	slog.Handler
}

func newContextHandler(h slog.Handler) *contextHandler {
	return &contextHandler{Handler: h}
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	for _, key := range contextKeys {
		switch v := ctx.Value(key).(type) {
		case nil:
		case string:
			if v != "" {
				attrs = append(attrs, slog.String(string(key), v))
			}
		case fmt.Stringer:
			attrs = append(attrs, slog.String(string(key), v.String()))
		default:
			attrs = append(attrs, slog.Any(string(key), v))
		}
	}
	return attrs
}

// samplingHandler drops a share of debug and info records. The decision is
// keyed on the request ID, so a request is logged completely or not at all.
// Records without a request ID are always kept.
type samplingHandler struct {
	slog.Handler
	rate      float64
	threshold uint64
}

func newSamplingHandler(h slog.Handler, rate float64) *samplingHandler {
	return &samplingHandler{Handler: h, rate: rate, threshold: uint64(rate * math.MaxUint64)}
}

func (h *samplingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if !h.Handler.Enabled(ctx, level) {
		return false
	}
	if level >= slog.LevelWarn || ctx == nil {
		return true
	}
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id == "" || xxhash.Sum64String(id) <= h.threshold
}

func (h *samplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &samplingHandler{Handler: h.Handler.WithAttrs(attrs), rate: h.rate, threshold: h.threshold}
}

func (h *samplingHandler) WithGroup(name string) slog.Handler {
	return &samplingHandler{Handler: h.Handler.WithGroup(name), rate: h.rate, threshold: h.threshold}
}

const redacted = "[REDACTED]"

var (
	// attribute keys whose values are never logged
	sensitiveKeys = []string{"token", "authorization", "password", "secret", "api_key", "apikey", "credential"}

	redactPatterns = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`), "Bearer " + redacted},
		// signed image links
		{regexp.MustCompile(`(?i)(X-Amz-(?:Signature|Credential|Security-Token)=)[^&\s"]+`), "${1}" + redacted},
		{regexp.MustCompile(`(?i)\b(password|secret|token|api[-_]?key)\s*[:=]\s*["']?[^"'\s&]+`), "${1}=" + redacted},
	}
)

// redactHandler masks admin tokens, credentials and presigned URL
// signatures in messages and string attributes.
type redactHandler struct {
	slog.Handler
}

func newRedactHandler(h slog.Handler) *redactHandler {
	return &redactHandler{Handler: h}
}

func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, redactString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.Handler.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redactAttr(a)
	}
	return &redactHandler{Handler: h.Handler.WithAttrs(clean)}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{Handler: h.Handler.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return slog.String(a.Key, redacted)
		}
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, redactString(a.Value.String()))
	case slog.KindGroup:
		group := a.Value.Group()
		clean := make([]any, len(group))
		for i, g := range group {
			clean[i] = redactAttr(g)
		}
		return slog.Group(a.Key, clean...)
	}
	return a
}

func redactString(s string) string {
	for _, p := range redactPatterns {
		s = p.re.ReplaceAllString(s, p.repl)
	}
	return s
}

// devHandler writes one colored line per record for local development.
type devHandler struct {
	*slog.TextHandler
	mu    *sync.Mutex
	w     io.Writer
	attrs []slog.Attr
}

func newDevHandler(w io.Writer, opts *slog.HandlerOptions) *devHandler {
	return &devHandler{TextHandler: slog.NewTextHandler(w, opts), mu: &sync.Mutex{}, w: w}
}

const (
	colorReset = "\033[0m"
	colorKey   = "\033[36m"
)

func (h *devHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s %-5s%s %s",
		levelColor(r.Level), r.Time.Format("15:04:05.000"), r.Level.String(), colorReset, r.Message)

	write := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s%s%s=%v", colorKey, a.Key, colorReset, a.Value)
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *devHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &devHandler{
		TextHandler: h.TextHandler,
		mu:          h.mu,
		w:           h.w,
		attrs:       append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\033[31m"
	case level >= slog.LevelWarn:
		return "\033[33m"
	case level >= slog.LevelInfo:
		return "\033[34m"
	default:
		return "\033[37m"
	}
}
