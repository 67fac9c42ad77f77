// internal/adapters/vision/client.go

// Package vision talks to the external image analysis service that
// estimates the condition and resale value of a garment photo.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
)

// ErrEstimatorUnavailable is returned when the service cannot be reached,
// is not configured, or answers with a server error.
var ErrEstimatorUnavailable = errors.New("condition estimator unavailable")

// ErrImageRejected is returned when the service refuses the image itself.
var ErrImageRejected = errors.New("image rejected by condition estimator")

const maxResponseBytes = 1 << 20

var _ ports.ConditionEstimator = (*Client)(nil)

// Config for the estimator client
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	RPS      float64
	Burst    int
}

// Client calls the estimator over HTTP, throttled client-side.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type estimateRequest struct {
	Image       string `json:"image"`
	ContentType string `json:"content_type"`
}

// NewClient creates an estimator client. A zero RPS disables throttling.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger.With(slog.String("client", "vision")),
	}
}

// Estimate sends one image and returns the service's answer. The raw
// response body is kept on the estimate.
func (c *Client) Estimate(ctx context.Context, image []byte, contentType string) (*domain.ConditionEstimate, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", ErrEstimatorUnavailable)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(estimateRequest{
		Image:       base64.StdEncoding.EncodeToString(image),
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEstimatorUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrEstimatorUnavailable, err)
	}

	c.logger.DebugContext(ctx, "estimator responded",
		slog.Int("status", resp.StatusCode),
		slog.Int("image_bytes", len(image)),
		slog.Duration("duration", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrEstimatorUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d: %s", ErrImageRejected, resp.StatusCode, bytes.TrimSpace(body))
	}

	var estimate domain.ConditionEstimate
	if err := json.Unmarshal(body, &estimate); err != nil {
		return nil, fmt.Errorf("failed to decode estimate: %w", err)
	}
	estimate.Raw = json.RawMessage(body)

	return &estimate, nil
}
