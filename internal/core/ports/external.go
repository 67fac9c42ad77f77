// internal/core/ports/external.go
package ports

import (
	"context"
	"io"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

// ConditionEstimator is the external image analysis service.
type ConditionEstimator interface {
	Estimate(ctx context.Context, image []byte, contentType string) (*domain.ConditionEstimate, error)
}

// ImageStore stores uploaded images.
type ImageStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// AdminAuthority answers whether a credential belongs to an admin.
type AdminAuthority interface {
	IsAdmin(ctx context.Context, token string) (bool, error)
}

// TaskQueue enqueues background tasks; *asynq.Client satisfies it.
type TaskQueue interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
