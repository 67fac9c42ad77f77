// internal/core/ports/item_repository.go
package ports

import (
	"context"
	"time"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

// ItemRepository is the persistence port for catalog items.
// FindByID returns domain.ErrItemNotFound for missing or deleted items.
type ItemRepository interface {
	Save(ctx context.Context, item *domain.Item) error
	SaveBatch(ctx context.Context, items []*domain.Item) error
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	ListAll(ctx context.Context) ([]*domain.Item, error)
	ListByCategory(ctx context.Context, category domain.Category) ([]*domain.Item, error)
	UpdateStock(ctx context.Context, id string, status domain.Status, stockCount int) error
	SoftDelete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// JobRepository tracks background import jobs.
type JobRepository interface {
	Create(ctx context.Context, job *domain.ImportJob) error
	Update(ctx context.Context, job *domain.ImportJob) error
	FindByID(ctx context.Context, id string) (*domain.ImportJob, error)
	// DeleteFinishedBefore removes completed or failed jobs created before cutoff.
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
