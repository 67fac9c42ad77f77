// test/helpers/helpers.go

// Package helpers holds fixtures and environment setup shared by tests.
package helpers

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ammerola/preloved-be/internal/pkg/config"
)

// TestLogger logs errors only, or everything under -v.
func TestLogger() *slog.Logger {
	if !testing.Verbose() {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// LoadTestConfig is a complete configuration for the test environment. It
// does not read the process environment.
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "preloved-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
		},
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			GracefulTimeout: time.Second,
		},
		Database: config.DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "test",
			Password:       "test",
			Name:           "test_catalog",
			SSLMode:        "disable",
			MaxConnections: 5,
			MinConnections: 1,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			PoolSize: 5,
			TTL:      time.Hour,
		},
		Asynq: config.AsynqConfig{
			RedisAddr:   "localhost:6379",
			Concurrency: 1,
			Queues:      map[string]int{"critical": 6, "default": 3, "low": 1},
		},
		Catalog: config.CatalogConfig{
			PriceMax:    1000,
			MaxPageSize: 200,
			SnapshotTTL: 5 * time.Minute,
			FacetTTL:    time.Minute,
			Locale:      "en",
			MemoLimit:   10_000,
		},
		FileProcessing: config.FileProcessingConfig{
			ExcelMaxSizeMB: 10,
			ImageMaxSizeMB: 5,
			TempDir:        os.TempDir(),
			TempMaxAge:     time.Hour,
		},
		Security: config.SecurityConfig{
			AdminTokens:       []string{"test-admin-token"},
			AllowedOrigins:    []string{"*"},
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
		},
	}
}

// CreateTempFile writes content to a file named with the given extension
// inside the test's temp dir.
func CreateTempFile(t *testing.T, content []byte, extension string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "upload"+extension)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}
