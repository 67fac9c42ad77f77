// internal/adapters/db/job_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
)

type jobRepository struct {
	db     ports.Database
	logger *slog.Logger
}

// NewJobRepository creates the import job store
func NewJobRepository(db ports.Database, logger *slog.Logger) ports.JobRepository {
	return &jobRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "import_jobs")),
	}
}

func (r *jobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	query, args, err := psql.Insert("import_jobs").
		Columns("id", "type", "file_name", "status", "rows_read", "items_saved",
			"errors", "created_at", "started_at", "completed_at").
		Values(job.ID, job.Type, job.FileName, string(job.Status), job.RowsRead, job.ItemsSaved,
			nonNil(job.Errors), job.CreatedAt, job.StartedAt, job.CompletedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}

	r.logger.InfoContext(ctx, "import job created",
		slog.String("job_id", job.ID),
		slog.String("type", job.Type))

	return nil
}

// Update overwrites the progress columns of an existing job.
func (r *jobRepository) Update(ctx context.Context, job *domain.ImportJob) error {
	query, args, err := psql.Update("import_jobs").
		Set("status", string(job.Status)).
		Set("rows_read", job.RowsRead).
		Set("items_saved", job.ItemsSaved).
		Set("errors", nonNil(job.Errors)).
		Set("started_at", job.StartedAt).
		Set("completed_at", job.CompletedAt).
		Where("id = ?", job.ID).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update import job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

func (r *jobRepository) FindByID(ctx context.Context, id string) (*domain.ImportJob, error) {
	query := `
		SELECT id, type, file_name, status, rows_read, items_saved,
		       errors, created_at, started_at, completed_at
		FROM import_jobs
		WHERE id = $1`

	var (
		job    domain.ImportJob
		status string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.Type, &job.FileName, &status, &job.RowsRead, &job.ItemsSaved,
		&job.Errors, &job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to find import job: %w", err)
	}
	job.Status = domain.JobStatus(status)

	return &job, nil
}

func (r *jobRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := psql.Delete("import_jobs").
		Where(squirrel.NotEq{"status": []string{string(domain.JobQueued), string(domain.JobProcessing)}}).
		Where(squirrel.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete import jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
