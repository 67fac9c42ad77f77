// internal/workers/tasks.go

// Package workers holds the asynq task processors run by cmd/worker.
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeCatalogImport    = "catalog:import"
	TypeCatalogRefresh   = "catalog:refresh"
	TypeCleanupTempFiles = "cleanup:temp_files"
	TypeCleanupOldJobs   = "cleanup:old_jobs"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// CatalogImportPayload points a worker at an uploaded workbook.
type CatalogImportPayload struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
}

// NewCatalogImportTask builds the task for one uploaded workbook.
func NewCatalogImportTask(p CatalogImportPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import payload: %w", err)
	}
	return asynq.NewTask(TypeCatalogImport, b,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour)), nil
}

// NewCatalogRefreshTask asks a worker to reload the catalog snapshot.
func NewCatalogRefreshTask() *asynq.Task {
	return asynq.NewTask(TypeCatalogRefresh, nil, asynq.Queue(QueueCritical), asynq.MaxRetry(1))
}

// NewCleanupTempFilesTask removes stale uploads.
func NewCleanupTempFilesTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupTempFiles, nil, asynq.Queue(QueueLow))
}

// NewCleanupOldJobsTask prunes finished import job records.
func NewCleanupOldJobsTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupOldJobs, nil, asynq.Queue(QueueLow))
}
