// internal/handlers/export.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ammerola/preloved-be/internal/adapters/spreadsheet"
	"github.com/ammerola/preloved-be/internal/core/catalog"
	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
)

// exportPageSize is requested per Browse call; the service may cap it.
const exportPageSize = 200

// JSONExportResponse represents the JSON export response structure
type JSONExportResponse struct {
	Items    []ports.Listing `json:"items"`
	Metadata ExportMetadata  `json:"metadata"`
}

// ExportMetadata contains metadata about the export
type ExportMetadata struct {
	ExportDate     time.Time         `json:"export_date"`
	TotalItems     int               `json:"total_items"`
	Query          string            `json:"query,omitempty"`
	Sort           domain.SortMode   `json:"sort"`
	Price          domain.PriceRange `json:"price"`
	IgnoredFilters []catalog.Dropped `json:"ignored_filters,omitempty"`
}

// ExportHandler exports a browsing projection of the catalog. It accepts
// the same query parameters as the browse endpoint, without paging.
type ExportHandler struct {
	responder
	service ports.CatalogService
}

// NewExportHandler creates a new export handler
func NewExportHandler(service ports.CatalogService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		responder: responder{logger: logger.With(slog.String("handler", "export"))},
		service:   service,
	}
}

// ExportExcel handles GET /api/v1/admin/export/excel
func (h *ExportHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listings, _, err := h.collect(ctx, parseRawQuery(r.URL.Query()))
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve data")
		return
	}

	items := make([]*domain.Item, len(listings))
	for i, l := range listings {
		items[i] = l.Item
	}

	data, err := spreadsheet.Bytes(items)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("catalog_export_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write Excel response",
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "Excel export completed",
		slog.Int("total_rows", len(items)),
		slog.String("filename", filename))
}

// ExportJSON handles GET /api/v1/admin/export/json
func (h *ExportHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listings, last, err := h.collect(ctx, parseRawQuery(r.URL.Query()))
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve data")
		return
	}

	response := JSONExportResponse{
		Items: listings,
		Metadata: ExportMetadata{
			ExportDate:     time.Now().UTC(),
			TotalItems:     len(listings),
			Query:          r.URL.RawQuery,
			Sort:           last.Sort,
			Price:          last.Price,
			IgnoredFilters: last.Ignored,
		},
	}

	body, err := json.Marshal(response)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal JSON export",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to generate JSON")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if _, err := w.Write(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to write JSON response",
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "JSON export completed",
		slog.Int("total_rows", len(listings)))
}

// collect pages through the whole projection. The returned result is the
// last page, for its query metadata.
func (h *ExportHandler) collect(ctx context.Context, raw domain.RawQuery) ([]ports.Listing, *ports.BrowseResult, error) {
	var (
		out  []ports.Listing
		page = catalog.Page{Number: 1, Size: exportPageSize}
	)
	for {
		res, err := h.service.Browse(ctx, ports.BrowseRequest{Raw: raw, Page: page})
		if err != nil {
			return nil, nil, err
		}
		out = append(out, res.Items...)
		if page.Number >= res.TotalPages {
			return out, res, nil
		}
		page.Number++
	}
}
