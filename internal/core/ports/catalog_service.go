// internal/core/ports/catalog_service.go
package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ammerola/preloved-be/internal/core/catalog"
	"github.com/ammerola/preloved-be/internal/core/domain"
)

// CatalogService is the application port used by the HTTP layer and workers.
type CatalogService interface {
	Browse(ctx context.Context, req BrowseRequest) (*BrowseResult, error)
	Facets(ctx context.Context, req FacetRequest) (*FacetResult, error)
	Showcase(ctx context.Context, category domain.Category) (*ShowcaseResult, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)

	SaveItem(ctx context.Context, item *domain.Item) error
	SaveItems(ctx context.Context, items []*domain.Item) error
	UpdateItem(ctx context.Context, id string, item *domain.Item) error
	UpdateStock(ctx context.Context, id string, status domain.Status, stockCount int) error
	DeleteItem(ctx context.Context, id string) error

	// Refresh reloads the catalog snapshot and returns its size.
	Refresh(ctx context.Context) (int, error)
}

// BrowseRequest holds the raw browsing state of one request.
type BrowseRequest struct {
	// SessionID scopes last-write-wins superseding; empty disables it.
	SessionID string
	Raw       domain.RawQuery
	Page      catalog.Page
}

// Listing is an item as presented in a result list.
type Listing struct {
	*domain.Item
	Purchasable     bool             `json:"purchasable"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

// NewListing derives the presentation flags of item.
func NewListing(item *domain.Item) Listing {
	l := Listing{Item: item, Purchasable: item.IsPurchasable()}
	if pct, ok := item.DiscountPercent(); ok {
		l.DiscountPercent = &pct
	}
	return l
}

// BrowseResult is a projected, paged result list.
type BrowseResult struct {
	Items      []Listing         `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
	Sort       domain.SortMode   `json:"sort"`
	Price      domain.PriceRange `json:"price"`
	Ignored    []catalog.Dropped `json:"ignored_filters,omitempty"`
}

// FacetRequest asks for counts of Dimensions under the Raw query.
// Top limits the values per dimension; 0 returns all.
type FacetRequest struct {
	Raw        domain.RawQuery
	Dimensions []domain.Dimension
	Top        int
}

// FacetSummary lists the values of one dimension and how many were cut by Top.
type FacetSummary struct {
	Values []catalog.FacetValue `json:"values"`
	More   int                  `json:"more"`
}

type FacetResult struct {
	Total  int                                `json:"total"`
	Facets map[domain.Dimension]FacetSummary `json:"facets"`
}

// ShowcaseResult holds the subcategory tiles of one department.
type ShowcaseResult struct {
	Category domain.Category      `json:"category"`
	Total    int                  `json:"total"`
	Tiles    []catalog.FacetValue `json:"tiles"`
}
