// internal/workers/refresh_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/preloved-be/internal/core/ports"
)

// RefreshProcessor reloads the catalog snapshot after bulk changes and on a schedule
type RefreshProcessor struct {
	service ports.CatalogService
	logger  *slog.Logger
}

// NewRefreshProcessor creates a new refresh processor
func NewRefreshProcessor(service ports.CatalogService, logger *slog.Logger) *RefreshProcessor {
	return &RefreshProcessor{
		service: service,
		logger:  logger.With(slog.String("processor", "refresh")),
	}
}

// RefreshCatalog drops cached copies of the catalog and loads a fresh snapshot
func (p *RefreshProcessor) RefreshCatalog(ctx context.Context, _ *asynq.Task) error {
	start := time.Now()

	n, err := p.service.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh catalog: %w", err)
	}

	p.logger.InfoContext(ctx, "catalog refreshed",
		slog.Int("items", n),
		slog.Duration("duration", time.Since(start)))
	return nil
}
