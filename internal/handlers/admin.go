// internal/handlers/admin.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
)

const maxItemBodyBytes = 1 << 20

// AdminHandler handles catalog maintenance requests
type AdminHandler struct {
	responder
	service ports.CatalogService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(service ports.CatalogService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		responder: responder{logger: logger.With(slog.String("handler", "admin"))},
		service:   service,
	}
}

// CreateItem handles POST /api/v1/admin/items
func (h *AdminHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item := req.ToDomain()
	if err := h.service.SaveItem(ctx, item); err != nil {
		h.respondServiceError(w, r, err, "Failed to create item")
		return
	}

	h.logger.InfoContext(ctx, "item created",
		slog.String("item_id", item.ID),
		slog.String("title", item.Title))

	h.respondJSON(w, http.StatusCreated, ports.NewListing(item))
}

// UpdateItem handles PUT /api/v1/admin/items/{id}
func (h *AdminHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req ItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item := req.ToDomain()
	if err := h.service.UpdateItem(ctx, id, item); err != nil {
		h.respondServiceError(w, r, err, "Failed to update item")
		return
	}

	h.logger.InfoContext(ctx, "item updated", slog.String("item_id", id))

	h.respondJSON(w, http.StatusOK, ports.NewListing(item))
}

// UpdateStock handles PATCH /api/v1/admin/items/{id}/stock
func (h *AdminHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req StockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	status, err := req.Validate()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateStock(ctx, id, status, req.StockCount); err != nil {
		h.respondServiceError(w, r, err, "Failed to update stock")
		return
	}

	h.logger.InfoContext(ctx, "stock updated",
		slog.String("item_id", id),
		slog.String("status", string(status)),
		slog.Int("stock_count", req.StockCount))

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":          id,
		"status":      status,
		"stock_count": req.StockCount,
		"purchasable": status == domain.StatusAvailable && req.StockCount > 0,
	})
}

// DeleteItem handles DELETE /api/v1/admin/items/{id}
func (h *AdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := h.service.DeleteItem(ctx, id); err != nil {
		h.respondServiceError(w, r, err, "Failed to delete item")
		return
	}

	h.logger.InfoContext(ctx, "item deleted", slog.String("item_id", id))

	w.WriteHeader(http.StatusNoContent)
}

// RefreshCatalog handles POST /api/v1/admin/catalog/refresh
func (h *AdminHandler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Refresh(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to refresh catalog")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]int{"items": n})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxItemBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

// Request DTOs

// ItemRequest is the body of item create and update requests. Enum fields
// accept any casing and are canonicalized.
type ItemRequest struct {
	ID            string     `json:"id,omitempty"`
	Title         string     `json:"title"`
	Brand         string     `json:"brand"`
	Category      string     `json:"category"`
	SubCategory   string     `json:"sub_category,omitempty"`
	Price         int64      `json:"price"`
	OriginalPrice *int64     `json:"original_price,omitempty"`
	Images        []string   `json:"images,omitempty"`
	Sizes         []string   `json:"sizes,omitempty"`
	Materials     []string   `json:"materials,omitempty"`
	Condition     string     `json:"condition,omitempty"`
	Status        string     `json:"status,omitempty"`
	StockCount    *int       `json:"stock_count,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Description   string     `json:"description,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	Occasion      string     `json:"occasion,omitempty"`
	Season        string     `json:"season,omitempty"`
	StyleCategory string     `json:"style_category,omitempty"`
	DateAdded     *time.Time `json:"date_added,omitempty"`
}

// Validate checks the fields the domain cannot default
func (r *ItemRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if r.Category == "" {
		return fmt.Errorf("category is required")
	}
	if r.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	return nil
}

// ToDomain converts the request to a domain item. Unrecognized enum values
// are passed through so domain validation can name them.
func (r *ItemRequest) ToDomain() *domain.Item {
	item := &domain.Item{
		ID:            r.ID,
		Title:         r.Title,
		Brand:         r.Brand,
		Category:      domain.Canonical(r.Category, domain.AllCategories),
		SubCategory:   domain.Canonical(r.SubCategory, domain.AllSubCategories),
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Images:        r.Images,
		Sizes:         domain.CanonicalAll(r.Sizes, domain.AllSizes),
		Materials:     domain.CanonicalAll(r.Materials, domain.AllMaterials),
		Condition:     domain.Canonical(r.Condition, domain.AllConditions),
		Status:        domain.Canonical(r.Status, domain.AllStatuses),
		StockCount:    1,
		Tags:          r.Tags,
		Description:   r.Description,
		Gender:        domain.Canonical(r.Gender, domain.AllGenders),
		Occasion:      domain.Canonical(r.Occasion, domain.AllOccasions),
		Season:        domain.Canonical(r.Season, domain.AllSeasons),
		StyleCategory: domain.Canonical(r.StyleCategory, domain.AllStyles),
	}
	if r.StockCount != nil {
		item.StockCount = *r.StockCount
	}
	if r.DateAdded != nil {
		item.DateAdded = r.DateAdded.UTC()
	}
	return item
}

// StockRequest is the body of a stock update
type StockRequest struct {
	Status     string `json:"status"`
	StockCount int    `json:"stock_count"`
}

// Validate returns the canonical status
func (r *StockRequest) Validate() (domain.Status, error) {
	status, ok := domain.ParseEnum(r.Status, domain.AllStatuses)
	if !ok {
		return "", fmt.Errorf("invalid status: %q", r.Status)
	}
	if r.StockCount < 0 {
		return "", fmt.Errorf("stock_count cannot be negative")
	}
	return status, nil
}
