// internal/handlers/routes.go
package handlers

import (
	"net/http"
)

const apiV1 = "/api/v1"

// Routes groups the handlers served by the API.
type Routes struct {
	Health  *HealthHandler
	Catalog *CatalogHandler
	Scan    *ScanHandler
	Admin   *AdminHandler
	Import  *ImportHandler
	Export  *ExportHandler
	// Metrics is mounted at /metrics when set
	Metrics http.Handler
}

// Register mounts every route on mux using method-specific patterns.
// Admin routes are wrapped by requireAdmin.
func (rt Routes) Register(mux *http.ServeMux, requireAdmin func(http.Handler) http.Handler) {
	if rt.Health != nil {
		mux.HandleFunc("GET /health", rt.Health.Health)
		mux.HandleFunc("GET /ready", rt.Health.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", rt.Health.Health)
	}
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}

	// Storefront
	mux.HandleFunc("GET "+apiV1+"/items", rt.Catalog.Browse)
	mux.HandleFunc("GET "+apiV1+"/items/{id}", rt.Catalog.GetItem)
	mux.HandleFunc("GET "+apiV1+"/collections/{category}", rt.Catalog.Collection)
	mux.HandleFunc("GET "+apiV1+"/collections/{category}/{sub}", rt.Catalog.Collection)
	mux.HandleFunc("GET "+apiV1+"/facets", rt.Catalog.Facets)
	mux.HandleFunc("GET "+apiV1+"/showcase/{category}", rt.Catalog.Showcase)
	if rt.Scan != nil {
		mux.HandleFunc("POST "+apiV1+"/scan", rt.Scan.Scan)
	}

	admin := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireAdmin(h))
	}

	// Catalog maintenance
	admin("POST "+apiV1+"/admin/items", rt.Admin.CreateItem)
	admin("PUT "+apiV1+"/admin/items/{id}", rt.Admin.UpdateItem)
	admin("PATCH "+apiV1+"/admin/items/{id}/stock", rt.Admin.UpdateStock)
	admin("DELETE "+apiV1+"/admin/items/{id}", rt.Admin.DeleteItem)
	admin("POST "+apiV1+"/admin/catalog/refresh", rt.Admin.RefreshCatalog)

	// Import and export
	admin("POST "+apiV1+"/admin/import/excel", rt.Import.ImportExcel)
	admin("GET "+apiV1+"/admin/import/status/{jobId}", rt.Import.ImportStatus)
	admin("GET "+apiV1+"/admin/export/excel", rt.Export.ExportExcel)
	admin("GET "+apiV1+"/admin/export/json", rt.Export.ExportJSON)
}
