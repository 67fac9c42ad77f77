// internal/handlers/scan.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
)

const scanCachePrefix = "scan:estimate:"

var scanImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ScanHandler stores a seller's garment photo and asks the external
// estimator for its condition. The estimate is returned untouched.
type ScanHandler struct {
	responder
	images    ports.ImageStore
	estimator ports.ConditionEstimator
	cache     ports.Cache
	maxSize   int64
	linkTTL   time.Duration
}

// NewScanHandler creates a new scan handler. Estimates of identical images
// are cached for linkTTL, the lifetime of the returned image link.
func NewScanHandler(images ports.ImageStore, estimator ports.ConditionEstimator, cache ports.Cache, logger *slog.Logger, maxSize int64, linkTTL time.Duration) *ScanHandler {
	if linkTTL <= 0 {
		linkTTL = time.Hour
	}
	return &ScanHandler{
		responder: responder{logger: logger.With(slog.String("handler", "scan"))},
		images:    images,
		estimator: estimator,
		cache:     cache,
		maxSize:   maxSize,
		linkTTL:   linkTTL,
	}
}

// Scan handles POST /api/v1/scan
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+1<<16)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		h.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Image is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxSize+1))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Failed to read image")
		return
	}
	if int64(len(data)) > h.maxSize {
		h.respondError(w, http.StatusRequestEntityTooLarge, "Image is too large")
		return
	}

	contentType := http.DetectContentType(data)
	ext, ok := scanImageTypes[contentType]
	if !ok {
		h.respondError(w, http.StatusUnsupportedMediaType, "Only JPEG, PNG, WebP and GIF images are accepted")
		return
	}

	digest := strconv.FormatUint(xxhash.Sum64(data), 16)
	cacheKey := scanCachePrefix + digest

	var cached domain.ConditionEstimate
	if err := h.cache.Load(ctx, cacheKey, &cached); err == nil {
		w.Header().Set("X-Cache", "HIT")
		h.respondJSON(w, http.StatusOK, &cached)
		return
	}

	key := fmt.Sprintf("scans/%s%s", digest, ext)
	link, err := h.store(ctx, key, data, contentType)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to store image")
		return
	}

	estimate, err := h.estimator.Estimate(ctx, data, contentType)
	if err != nil {
		h.logger.WarnContext(ctx, "condition estimate failed",
			slog.String("image_key", key),
			slog.String("error", err.Error()))
		h.respondServiceError(w, r, err, "Failed to estimate condition")
		return
	}
	estimate.ImageURL = link

	if err := h.cache.Store(ctx, cacheKey, estimate, h.linkTTL); err != nil {
		h.logger.WarnContext(ctx, "failed to cache estimate",
			slog.String("error", err.Error()))
	}

	h.logger.InfoContext(ctx, "garment scanned",
		slog.String("image_key", key),
		slog.String("condition", estimate.Condition),
		slog.Float64("confidence", estimate.Confidence))

	w.Header().Set("X-Cache", "MISS")
	h.respondJSON(w, http.StatusOK, estimate)
}

// store uploads the image once per content hash and returns a link valid for linkTTL.
func (h *ScanHandler) store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	exists, err := h.images.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		if _, err := h.images.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
			return "", err
		}
	}
	return h.images.PresignedURL(ctx, key, h.linkTTL)
}
