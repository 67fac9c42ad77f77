// internal/handlers/import.go
package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
	"github.com/ammerola/preloved-be/internal/workers"
)

var excelContentTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/octet-stream": true,
}

// ImportHandler accepts catalog workbooks and queues them for import
type ImportHandler struct {
	responder
	jobs        ports.JobRepository
	queue       ports.TaskQueue
	maxFileSize int64
	uploadDir   string
}

// NewImportHandler creates a new import handler
func NewImportHandler(jobs ports.JobRepository, queue ports.TaskQueue, logger *slog.Logger, maxFileSize int64, uploadDir string) *ImportHandler {
	return &ImportHandler{
		responder:   responder{logger: logger.With(slog.String("handler", "import"))},
		jobs:        jobs,
		queue:       queue,
		maxFileSize: maxFileSize,
		uploadDir:   uploadDir,
	}
}

// ImportExcel handles POST /api/v1/admin/import/excel
func (h *ImportHandler) ImportExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		h.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") || !excelContentTypes[header.Header.Get("Content-Type")] {
		h.respondError(w, http.StatusBadRequest, "Only .xlsx workbooks are allowed")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.ErrorContext(ctx, "failed to create upload directory",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to prepare upload")
		return
	}

	jobID := uuid.NewString()
	tempFile := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", jobID, name))
	if err := saveUpload(tempFile, file); err != nil {
		h.logger.ErrorContext(ctx, "failed to save upload",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	job := &domain.ImportJob{
		ID:        jobID,
		Type:      workers.TypeCatalogImport,
		FileName:  name,
		Status:    domain.JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.jobs.Create(ctx, job); err != nil {
		os.Remove(tempFile)
		h.logger.ErrorContext(ctx, "failed to create job record",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create import job")
		return
	}

	task, err := workers.NewCatalogImportTask(workers.CatalogImportPayload{
		JobID:    jobID,
		FilePath: tempFile,
		FileName: name,
	})
	if err == nil {
		_, err = h.queue.EnqueueContext(ctx, task)
	}
	if err != nil {
		os.Remove(tempFile)
		h.failJob(r, job, err)
		h.respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, "catalog import queued",
		slog.String("job_id", jobID),
		slog.String("file_name", name),
		slog.Int64("size", header.Size))

	h.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  jobID,
		"status":  job.Status,
		"message": "Catalog import has been queued for processing",
	})
}

// ImportStatus handles GET /api/v1/admin/import/status/{jobId}
func (h *ImportHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.FindByID(r.Context(), r.PathValue("jobId"))
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to get job status")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

func (h *ImportHandler) failJob(r *http.Request, job *domain.ImportJob, cause error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, "failed to enqueue import",
		slog.String("job_id", job.ID),
		slog.String("error", cause.Error()))

	now := time.Now().UTC()
	job.Status = domain.JobFailed
	job.CompletedAt = &now
	job.Errors = []string{"could not be queued"}
	if err := h.jobs.Update(ctx, job); err != nil {
		h.logger.ErrorContext(ctx, "failed to mark job failed",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()))
	}
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}
	return dst.Close()
}
