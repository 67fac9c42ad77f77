// internal/handlers/admin_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/handlers"
	"github.com/ammerola/preloved-be/test/helpers"
	"github.com/ammerola/preloved-be/test/mocks"
)

func TestAdminHandler_CreateItem(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*testing.T, *mocks.MockCatalogService)
		expectedStatus int
	}{
		{
			name: "creates_item_with_canonical_enums",
			body: `{"title":"Silk Blouse","brand":"Equipment","category":"TOPS","sub_category":"Blouses","price":45,"sizes":["s","M"],"condition":"Like New"}`,
			setupMocks: func(t *testing.T, m *mocks.MockCatalogService) {
				m.EXPECT().SaveItem(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item *domain.Item) error {
						assert.Equal(t, domain.CategoryTops, item.Category)
						assert.Equal(t, domain.SubBlouses, item.SubCategory)
						assert.Equal(t, []domain.Size{domain.SizeS, domain.SizeM}, item.Sizes)
						assert.Equal(t, domain.ConditionLikeNew, item.Condition)
						assert.Equal(t, 1, item.StockCount)
						item.ID = "item-new"
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing_title",
			body:           `{"category":"tops","price":45}`,
			setupMocks:     func(t *testing.T, m *mocks.MockCatalogService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown_field",
			body:           `{"title":"Blouse","category":"tops","price":45,"colour":"red"}`,
			setupMocks:     func(t *testing.T, m *mocks.MockCatalogService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "domain_validation_error",
			body: `{"title":"Blouse","category":"spacesuits","price":45}`,
			setupMocks: func(t *testing.T, m *mocks.MockCatalogService) {
				m.EXPECT().SaveItem(gomock.Any(), gomock.Any()).
					Return(fmt.Errorf("%w: invalid category %q", domain.ErrValidation, "spacesuits"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "repository_error",
			body: `{"title":"Blouse","category":"tops","price":45}`,
			setupMocks: func(t *testing.T, m *mocks.MockCatalogService) {
				m.EXPECT().SaveItem(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := mocks.NewMockCatalogService(ctrl)
			tt.setupMocks(t, service)

			handler := handlers.NewAdminHandler(service, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/items", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			handler.CreateItem(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestAdminHandler_UpdateItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockCatalogService(ctrl)

	gomock.InOrder(
		service.EXPECT().UpdateItem(gomock.Any(), "item-001", gomock.Any()).Return(nil),
		service.EXPECT().UpdateItem(gomock.Any(), "missing", gomock.Any()).Return(domain.ErrItemNotFound),
	)

	handler := handlers.NewAdminHandler(service, helpers.TestLogger())
	body := `{"title":"Wool Overcoat","category":"outerwear","price":110}`

	for _, tc := range []struct {
		id   string
		want int
	}{
		{"item-001", http.StatusOK},
		{"missing", http.StatusNotFound},
	} {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/items/"+tc.id, strings.NewReader(body))
		req.SetPathValue("id", tc.id)
		w := httptest.NewRecorder()
		handler.UpdateItem(w, req)
		assert.Equal(t, tc.want, w.Code, tc.id)
	}
}

func TestAdminHandler_UpdateStock(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		setupMocks      func(*mocks.MockCatalogService)
		expectedStatus  int
		wantPurchasable bool
	}{
		{
			name: "restock",
			body: `{"status":"Available","stock_count":2}`,
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().UpdateStock(gomock.Any(), "item-001", domain.StatusAvailable, 2).Return(nil)
			},
			expectedStatus:  http.StatusOK,
			wantPurchasable: true,
		},
		{
			name: "sold_out",
			body: `{"status":"sold","stock_count":0}`,
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().UpdateStock(gomock.Any(), "item-001", domain.StatusSold, 0).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown_status",
			body:           `{"status":"lost","stock_count":1}`,
			setupMocks:     func(m *mocks.MockCatalogService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative_stock",
			body:           `{"status":"available","stock_count":-1}`,
			setupMocks:     func(m *mocks.MockCatalogService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := mocks.NewMockCatalogService(ctrl)
			tt.setupMocks(service)

			handler := handlers.NewAdminHandler(service, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/items/item-001/stock", bytes.NewBufferString(tt.body))
			req.SetPathValue("id", "item-001")
			w := httptest.NewRecorder()
			handler.UpdateStock(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var got map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tt.wantPurchasable, got["purchasable"])
			}
		})
	}
}

func TestAdminHandler_DeleteItem(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "deleted", expectedStatus: http.StatusNoContent},
		{name: "not_found", err: domain.ErrItemNotFound, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := mocks.NewMockCatalogService(ctrl)
			service.EXPECT().DeleteItem(gomock.Any(), "item-001").Return(tt.err)

			handler := handlers.NewAdminHandler(service, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/items/item-001", nil)
			req.SetPathValue("id", "item-001")
			w := httptest.NewRecorder()
			handler.DeleteItem(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAdminHandler_RefreshCatalog(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockCatalogService(ctrl)
	service.EXPECT().Refresh(gomock.Any()).Return(17, nil)

	handler := handlers.NewAdminHandler(service, helpers.TestLogger())

	w := httptest.NewRecorder()
	handler.RefreshCatalog(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/catalog/refresh", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":17}`, w.Body.String())
}
