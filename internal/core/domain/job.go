// internal/core/domain/job.go
package domain

import (
	"errors"
	"time"
)

// ErrJobNotFound is returned for unknown import jobs.
var ErrJobNotFound = errors.New("job not found")

// JobStatus of a background import
type JobStatus string

const (
	JobQueued             JobStatus = "queued"
	JobProcessing         JobStatus = "processing"
	JobCompleted          JobStatus = "completed"
	JobCompletedWithError JobStatus = "completed_with_errors"
	JobFailed             JobStatus = "failed"
)

// ImportJob records the progress of a spreadsheet import.
type ImportJob struct {
	ID          string     `json:"job_id"`
	Type        string     `json:"type"`
	FileName    string     `json:"file_name"`
	Status      JobStatus  `json:"status"`
	RowsRead    int        `json:"rows_read"`
	ItemsSaved  int        `json:"items_saved"`
	Errors      []string   `json:"errors,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
