// internal/workers/excel_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/preloved-be/internal/adapters/spreadsheet"
	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
)

// maxJobErrors caps the row errors stored on a job record.
const maxJobErrors = 100

// ExcelProcessor imports catalog items from uploaded workbooks
type ExcelProcessor struct {
	service ports.CatalogService
	jobs    ports.JobRepository
	tempDir string
	logger  *slog.Logger
	now     func() time.Time
}

// NewExcelProcessor creates a new Excel processor. Only uploads under
// tempDir are removed after processing.
func NewExcelProcessor(service ports.CatalogService, jobs ports.JobRepository, tempDir string, logger *slog.Logger) *ExcelProcessor {
	return &ExcelProcessor{
		service: service,
		jobs:    jobs,
		tempDir: tempDir,
		logger:  logger.With(slog.String("processor", "excel")),
		now:     time.Now,
	}
}

// ProcessExcel reads one workbook and saves every valid row. Invalid rows
// are recorded on the job and do not stop the import.
func (p *ExcelProcessor) ProcessExcel(ctx context.Context, t *asynq.Task) error {
	var payload CatalogImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log := p.logger.With(slog.String("job_id", payload.JobID))
	log.InfoContext(ctx, "processing catalog workbook",
		slog.String("file_name", payload.FileName))

	job, err := p.jobs.FindByID(ctx, payload.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			p.removeUpload(ctx, payload.FilePath)
			return fmt.Errorf("import job %s: %w", payload.JobID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load import job: %w", err)
	}

	started := p.now().UTC()
	job.Status = domain.JobProcessing
	job.StartedAt = &started
	if err := p.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	items, rowErrs, err := spreadsheet.ReadFile(payload.FilePath)
	if err != nil {
		p.finish(ctx, job, domain.JobFailed, []string{err.Error()})
		p.removeUpload(ctx, payload.FilePath)
		return fmt.Errorf("failed to read workbook: %v: %w", err, asynq.SkipRetry)
	}

	job.RowsRead = len(items) + len(rowErrs)
	var messages []string
	for _, re := range rowErrs {
		messages = append(messages, re.Error())
	}

	if err := p.service.SaveItems(ctx, items); err != nil {
		if lastAttempt(ctx) || errors.Is(err, domain.ErrValidation) {
			p.finish(ctx, job, domain.JobFailed, append(messages, err.Error()))
			p.removeUpload(ctx, payload.FilePath)
			return fmt.Errorf("failed to save items: %v: %w", err, asynq.SkipRetry)
		}
		// Retried by asynq; the upload stays in place for the next attempt.
		return fmt.Errorf("failed to save items: %w", err)
	}
	job.ItemsSaved = len(items)

	status := domain.JobCompleted
	if len(messages) > 0 {
		status = domain.JobCompletedWithError
	}
	p.finish(ctx, job, status, messages)
	p.removeUpload(ctx, payload.FilePath)

	log.InfoContext(ctx, "catalog workbook imported",
		slog.Int("rows_read", job.RowsRead),
		slog.Int("items_saved", job.ItemsSaved),
		slog.Int("rows_rejected", len(rowErrs)))

	return nil
}

func (p *ExcelProcessor) finish(ctx context.Context, job *domain.ImportJob, status domain.JobStatus, messages []string) {
	done := p.now().UTC()
	job.Status = status
	job.CompletedAt = &done
	if len(messages) > maxJobErrors {
		extra := len(messages) - maxJobErrors
		messages = append(messages[:maxJobErrors:maxJobErrors], fmt.Sprintf("... and %d more", extra))
	}
	job.Errors = messages

	if err := p.jobs.Update(ctx, job); err != nil {
		p.logger.ErrorContext(ctx, "failed to record job result",
			slog.String("job_id", job.ID),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
	}
}

func (p *ExcelProcessor) removeUpload(ctx context.Context, path string) {
	if p.tempDir == "" || !within(p.tempDir, path) {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.WarnContext(ctx, "failed to remove upload",
			slog.String("file", path),
			slog.String("error", err.Error()))
	}
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

// lastAttempt reports whether asynq will not retry the running task.
func lastAttempt(ctx context.Context) bool {
	retried, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	return !ok1 || !ok2 || retried >= maxRetry
}
