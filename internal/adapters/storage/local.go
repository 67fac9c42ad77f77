// internal/adapters/storage/local.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ammerola/preloved-be/internal/core/ports"
)

var _ ports.ImageStore = (*LocalStorage)(nil)

// LocalStorage keeps images on the local filesystem, for development and tests.
type LocalStorage struct {
	basePath string
	baseURL  string
	logger   *slog.Logger
}

// NewLocalStorage stores files under basePath; links are rendered relative to baseURL.
func NewLocalStorage(basePath, baseURL string, logger *slog.Logger) *LocalStorage {
	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger.With(slog.String("storage", "local")),
	}
}

// Upload saves a file locally
func (l *LocalStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	dest, err := l.path(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	n, err := io.Copy(file, body)
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	l.logger.DebugContext(ctx, "file stored",
		slog.String("key", key),
		slog.String("content_type", contentTypeFor(key, contentType)),
		slog.Int64("size", n))

	return l.link(key), nil
}

// PresignedURL returns a plain link; local files do not expire.
func (l *LocalStorage) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	dest, err := l.path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dest); err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	return l.link(key), nil
}

// Exists reports whether key has been uploaded.
func (l *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	dest, err := l.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dest); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return true, nil
}

func (l *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.basePath, clean), nil
}

func (l *LocalStorage) link(key string) string {
	rel := strings.TrimPrefix(path.Clean("/"+key), "/")
	return l.baseURL + "/" + (&url.URL{Path: rel}).EscapedPath()
}
