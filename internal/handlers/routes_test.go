// internal/handlers/routes_test.go
package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/preloved-be/internal/adapters/auth"
	"github.com/ammerola/preloved-be/internal/core/ports"
	"github.com/ammerola/preloved-be/internal/handlers"
	"github.com/ammerola/preloved-be/internal/handlers/middleware"
	"github.com/ammerola/preloved-be/test/helpers"
	"github.com/ammerola/preloved-be/test/mocks"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *mocks.MockCatalogService) {
	t.Helper()

	ctrl := gomock.NewController(t)
	service := mocks.NewMockCatalogService(ctrl)
	logger := helpers.TestLogger()

	routes := handlers.Routes{
		Catalog: handlers.NewCatalogHandler(service, logger),
		Admin:   handlers.NewAdminHandler(service, logger),
		Import:  handlers.NewImportHandler(mocks.NewMockJobRepository(ctrl), mocks.NewMockTaskQueue(ctrl), logger, 1<<20, t.TempDir()),
		Export:  handlers.NewExportHandler(service, logger),
	}

	mux := http.NewServeMux()
	routes.Register(mux, middleware.RequireAdmin(auth.NewTokenAuthority([]string{"admin-secret"}), logger))
	return mux, service
}

func TestRoutes_AdminRequiresToken(t *testing.T) {
	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{name: "missing_token", expectedStatus: http.StatusUnauthorized},
		{name: "wrong_token", token: "guess", expectedStatus: http.StatusForbidden},
		{name: "valid_token", token: "admin-secret", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, service := newTestRouter(t)
			if tt.expectedStatus == http.StatusOK {
				service.EXPECT().Refresh(gomock.Any()).Return(3, nil)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/catalog/refresh", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRoutes_PathValues(t *testing.T) {
	mux, service := newTestRouter(t)

	service.EXPECT().Browse(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.BrowseRequest) (*ports.BrowseResult, error) {
			assert.Equal(t, "tops", req.Raw.RouteCategory)
			assert.Equal(t, "blouses", req.Raw.RouteSubCategory)
			return &ports.BrowseResult{}, nil
		})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/collections/tops/blouses", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/items/item-1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
