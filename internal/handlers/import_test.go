// internal/handlers/import_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/handlers"
	"github.com/ammerola/preloved-be/internal/workers"
	"github.com/ammerola/preloved-be/test/helpers"
	"github.com/ammerola/preloved-be/test/mocks"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func newUploadRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/import/excel", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImportHandler_ImportExcel(t *testing.T) {
	tests := []struct {
		name           string
		filename       string
		contentType    string
		setupMocks     func(*testing.T, *mocks.MockJobRepository, *mocks.MockTaskQueue)
		expectedStatus int
		wantUploads    int
	}{
		{
			name:        "queues_workbook",
			filename:    "spring_drop.xlsx",
			contentType: xlsxContentType,
			setupMocks: func(t *testing.T, jobs *mocks.MockJobRepository, queue *mocks.MockTaskQueue) {
				jobs.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, job *domain.ImportJob) error {
						assert.Equal(t, domain.JobQueued, job.Status)
						assert.Equal(t, "spring_drop.xlsx", job.FileName)
						return nil
					})
				queue.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
						assert.Equal(t, workers.TypeCatalogImport, task.Type())
						var p workers.CatalogImportPayload
						require.NoError(t, json.Unmarshal(task.Payload(), &p))
						assert.FileExists(t, p.FilePath)
						assert.Equal(t, "spring_drop.xlsx", p.FileName)
						return &asynq.TaskInfo{ID: p.JobID}, nil
					})
			},
			expectedStatus: http.StatusAccepted,
			wantUploads:    1,
		},
		{
			name:           "rejects_other_extensions",
			filename:       "catalog.csv",
			contentType:    "text/csv",
			setupMocks:     func(*testing.T, *mocks.MockJobRepository, *mocks.MockTaskQueue) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "job_record_failure",
			filename:    "catalog.xlsx",
			contentType: "application/octet-stream",
			setupMocks: func(t *testing.T, jobs *mocks.MockJobRepository, queue *mocks.MockTaskQueue) {
				jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:        "enqueue_failure_fails_job",
			filename:    "catalog.xlsx",
			contentType: xlsxContentType,
			setupMocks: func(t *testing.T, jobs *mocks.MockJobRepository, queue *mocks.MockTaskQueue) {
				jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
				queue.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
				jobs.EXPECT().Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, job *domain.ImportJob) error {
						assert.Equal(t, domain.JobFailed, job.Status)
						assert.NotNil(t, job.CompletedAt)
						return nil
					})
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			jobs := mocks.NewMockJobRepository(ctrl)
			queue := mocks.NewMockTaskQueue(ctrl)
			tt.setupMocks(t, jobs, queue)

			uploadDir := filepath.Join(t.TempDir(), "uploads")
			handler := handlers.NewImportHandler(jobs, queue, helpers.TestLogger(), 1<<20, uploadDir)

			w := httptest.NewRecorder()
			handler.ImportExcel(w, newUploadRequest(t, tt.filename, tt.contentType, []byte("PK\x03\x04workbook")))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			entries, _ := os.ReadDir(uploadDir)
			assert.Len(t, entries, tt.wantUploads)
		})
	}
}

func TestImportHandler_ImportStatus(t *testing.T) {
	tests := []struct {
		name           string
		job            *domain.ImportJob
		err            error
		expectedStatus int
	}{
		{
			name:           "completed_with_errors",
			job:            &domain.ImportJob{ID: "job-1", Status: domain.JobCompletedWithError, RowsRead: 10, ItemsSaved: 8},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown_job",
			err:            domain.ErrJobNotFound,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			jobs := mocks.NewMockJobRepository(ctrl)
			jobs.EXPECT().FindByID(gomock.Any(), "job-1").Return(tt.job, tt.err)

			handler := handlers.NewImportHandler(jobs, mocks.NewMockTaskQueue(ctrl), helpers.TestLogger(), 1<<20, t.TempDir())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/import/status/job-1", nil)
			req.SetPathValue("jobId", "job-1")
			w := httptest.NewRecorder()
			handler.ImportStatus(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.job != nil {
				var got domain.ImportJob
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tt.job.Status, got.Status)
				assert.Equal(t, 8, got.ItemsSaved)
			}
		})
	}
}
