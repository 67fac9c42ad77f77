// internal/handlers/catalog.go
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ammerola/preloved-be/internal/core/catalog"
	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
	"github.com/ammerola/preloved-be/internal/handlers/middleware"
)

// statusAll explicitly lifts the default {available} status filter.
const statusAll = "all"

// CatalogHandler serves the public browsing endpoints.
type CatalogHandler struct {
	responder
	service ports.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service ports.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		responder: responder{logger: logger.With(slog.String("handler", "catalog"))},
		service:   service,
	}
}

// Browse handles GET /api/v1/items
func (h *CatalogHandler) Browse(w http.ResponseWriter, r *http.Request) {
	h.browse(w, r, parseRawQuery(r.URL.Query()))
}

// Collection handles GET /api/v1/collections/{category} and
// GET /api/v1/collections/{category}/{sub}. Descriptions are searched here.
func (h *CatalogHandler) Collection(w http.ResponseWriter, r *http.Request) {
	raw := parseRawQuery(r.URL.Query())
	raw.RouteCategory = r.PathValue("category")
	raw.RouteSubCategory = r.PathValue("sub")
	raw.SearchDescription = true

	h.browse(w, r, raw)
}

func (h *CatalogHandler) browse(w http.ResponseWriter, r *http.Request, raw domain.RawQuery) {
	ctx := r.Context()

	result, err := h.service.Browse(ctx, ports.BrowseRequest{
		SessionID: r.Header.Get(middleware.SessionHeader),
		Raw:       raw,
		Page:      parsePage(r.URL.Query()),
	})
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to browse catalog")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Facets handles GET /api/v1/facets
func (h *CatalogHandler) Facets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := r.URL.Query()

	req := ports.FacetRequest{Raw: parseRawQuery(values)}
	for _, name := range values["dimension"] {
		dim, ok := domain.ParseDimension(name)
		if !ok {
			h.respondError(w, http.StatusBadRequest, "Unknown dimension: "+name)
			return
		}
		req.Dimensions = append(req.Dimensions, dim)
	}
	if top := values.Get("top"); top != "" {
		n, err := strconv.Atoi(top)
		if err != nil || n < 0 {
			h.respondError(w, http.StatusBadRequest, "top must be a non-negative integer")
			return
		}
		req.Top = n
	}

	result, err := h.service.Facets(ctx, req)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to count facets")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Showcase handles GET /api/v1/showcase/{category}
func (h *CatalogHandler) Showcase(w http.ResponseWriter, r *http.Request) {
	category, ok := domain.ParseEnum(r.PathValue("category"), domain.AllCategories)
	if !ok {
		h.respondError(w, http.StatusNotFound, "Unknown category")
		return
	}

	result, err := h.service.Showcase(r.Context(), category)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to build showcase")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetItem handles GET /api/v1/items/{id}
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve item")
		return
	}

	h.respondJSON(w, http.StatusOK, ports.NewListing(item))
}

// parseRawQuery reads browsing state from query parameters. Each facet is a
// repeated parameter named after its dimension. Malformed numbers are
// ignored the same way unknown facet values are.
func parseRawQuery(values url.Values) domain.RawQuery {
	raw := domain.RawQuery{
		Text:   values.Get("q"),
		Sort:   values.Get("sort"),
		Facets: make(map[domain.Dimension][]string),
	}
	raw.SearchDescription, _ = strconv.ParseBool(values.Get("search_description"))
	raw.InStock, _ = strconv.ParseBool(values.Get("in_stock"))
	raw.PriceMin = parseInt64(values.Get("price_min"))
	raw.PriceMax = parseInt64(values.Get("price_max"))

	for key, vals := range values {
		dim, ok := domain.ParseDimension(key)
		if !ok {
			continue
		}

		selected := make([]string, 0, len(vals))
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				selected = append(selected, v)
			}
		}
		if dim == domain.DimStatus && containsFold(selected, statusAll) {
			selected = []string{}
		}
		raw.Facets[dim] = append(raw.Facets[dim], selected...)
	}

	return raw
}

func parsePage(values url.Values) catalog.Page {
	page := catalog.Page{Number: 1}
	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		page.Number = p
	}
	if l, err := strconv.Atoi(values.Get("limit")); err == nil && l > 0 {
		page.Size = l
	}
	return page
}

func parseInt64(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
