// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ContextKey names a request-scoped value copied onto every log record.
type ContextKey string

const (
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeySessionID ContextKey = "session_id"
	ContextKeyTraceID   ContextKey = "trace_id"
	ContextKeyClientIP  ContextKey = "client_ip"
	ContextKeyUserAgent ContextKey = "user_agent"
	ContextKeyMethod    ContextKey = "method"
	ContextKeyPath      ContextKey = "path"
	ContextKeyJobID     ContextKey = "job_id"
	ContextKeyTaskType  ContextKey = "task_type"
)

// contextKeys is the order in which context values are appended.
var contextKeys = []ContextKey{
	ContextKeyRequestID, ContextKeySessionID, ContextKeyTraceID,
	ContextKeyClientIP, ContextKeyUserAgent, ContextKeyMethod, ContextKeyPath,
	ContextKeyJobID, ContextKeyTaskType,
}

type loggerKey struct{}

// Options configures a Logger
type Options struct {
	Level  string
	Format string // json or text
	// Output is stdout, stderr or file:<path>
	Output string
	// SampleRate keeps this fraction of requests' debug and info records.
	// Zero or >= 1 disables sampling.
	SampleRate  float64
	Service     string
	Version     string
	Environment string
}

// Logger is a slog.Logger built from Options
type Logger struct {
	*slog.Logger
	opts Options
}

var defaultLogger *Logger

// SetupLogger builds the process logger and installs it as the slog default.
// Sampling, output and service labels come from the environment.
func SetupLogger(level string, format string) *Logger {
	rate, _ := strconv.ParseFloat(os.Getenv("LOG_SAMPLE_RATE"), 64)
	l := New(Options{
		Level:       level,
		Format:      format,
		Output:      getEnvOr("LOG_OUTPUT", "stdout"),
		SampleRate:  rate,
		Service:     getEnvOr("SERVICE_NAME", "preloved-be"),
		Version:     os.Getenv("SERVICE_VERSION"),
		Environment: os.Getenv("APP_ENV"),
	})

	defaultLogger = l
	slog.SetDefault(l.Logger)
	return l
}

// New builds the handler chain: format, then context enrichment, then
// sampling, then redaction, so redaction sees every attribute.
func New(opts Options) *Logger {
	if opts.Format == "" {
		opts.Format = "json"
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: opts.Format == "json",
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return replaceAttr(opts.Format, a)
		},
	}

	w := getWriter(opts.Output)
	var h slog.Handler
	if opts.Format == "text" {
		h = newDevHandler(w, handlerOpts)
	} else {
		h = slog.NewJSONHandler(w, handlerOpts)
	}

	h = newContextHandler(h)
	if opts.SampleRate > 0 && opts.SampleRate < 1 {
		h = newSamplingHandler(h, opts.SampleRate)
	}
	h = newRedactHandler(h)

	var attrs []slog.Attr
	if opts.Service != "" {
		attrs = append(attrs, slog.String("service", opts.Service))
	}
	if opts.Version != "" {
		attrs = append(attrs, slog.String("version", opts.Version))
	}
	if opts.Environment != "" {
		attrs = append(attrs, slog.String("env", opts.Environment))
	}
	if len(attrs) > 0 {
		h = h.WithAttrs(attrs)
	}

	return &Logger{Logger: slog.New(h), opts: opts}
}

// FromContext returns the logger stored by WithLogger, or the default one.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l.Logger
	}
	if defaultLogger != nil {
		return defaultLogger.Logger
	}
	return slog.Default()
}

// WithLogger adds logger to context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithValue stores a log field in ctx; every record logged with ctx carries it.
func WithValue(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getWriter(output string) io.Writer {
	switch {
	case output == "stderr":
		return os.Stderr
	case strings.HasPrefix(output, "file:"):
		f, err := os.OpenFile(strings.TrimPrefix(output, "file:"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return os.Stdout
		}
		return f
	default:
		return os.Stdout
	}
}

func replaceAttr(format string, a slog.Attr) slog.Attr {
	switch {
	case a.Key == slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
		}
	case a.Key == slog.LevelKey && format == "json":
		a.Key = "severity"
	case strings.HasSuffix(a.Key, "_ms"):
		if d, ok := a.Value.Any().(time.Duration); ok {
			a.Value = slog.Float64Value(float64(d.Microseconds()) / 1000)
		}
	}
	return a
}
