// internal/core/catalog/projection.go
package catalog

import (
	"golang.org/x/text/language"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

// Page selects a window of the ranked result. Size <= 0 disables paging.
// Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Result is the ordered, optionally paged output of a projection.
type Result struct {
	Items      []*domain.Item `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
	Query      domain.Query   `json:"-"`
}

// Engine composes normalization, filtering and ranking.
type Engine struct {
	bounds        domain.PriceRange
	catalogBounds bool
	ranker        Ranker
	memo          *Memo
}

// Option configures an Engine
type Option func(*Engine)

// WithPriceBounds sets the fallback price range for queries without bounds.
func WithPriceBounds(r domain.PriceRange) Option {
	return func(e *Engine) { e.bounds = r }
}

// WithCatalogBounds widens the fallback range to cover every catalog price.
func WithCatalogBounds() Option {
	return func(e *Engine) { e.catalogBounds = true }
}

// WithLocale sets the collation locale of the name sort.
func WithLocale(tag language.Tag) Option {
	return func(e *Engine) { e.ranker = NewRanker(tag) }
}

// WithMemo memoizes predicate evaluation.
func WithMemo(m *Memo) Option {
	return func(e *Engine) { e.memo = m }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{bounds: domain.DefaultPriceRange, ranker: NewRanker(language.English)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Normalizer returns the normalizer the engine uses for items.
func (e *Engine) Normalizer(items []*domain.Item) Normalizer {
	if e.catalogBounds {
		return NewNormalizer(PriceBounds(items, e.bounds))
	}
	return NewNormalizer(e.bounds)
}

// Project normalizes raw and runs the pipeline over items.
func (e *Engine) Project(items []*domain.Item, raw domain.RawQuery, page Page) Result {
	return e.ProjectQuery(items, e.Normalizer(items).Normalize(raw), page)
}

// ProjectQuery filters, ranks, then pages. Paging never changes which items
// match or their order.
func (e *Engine) ProjectQuery(items []*domain.Item, q domain.Query, page Page) Result {
	var matched []*domain.Item
	if e.memo != nil {
		matched = e.memo.Filter(items, q)
	} else {
		matched = Filter(items, q)
	}
	ranked := e.ranker.Rank(matched, q.Sort)
	return paginate(ranked, q, page)
}

// Facets returns cross-filtered counts for q.
func (e *Engine) Facets(items []*domain.Item, q domain.Query, dims ...domain.Dimension) map[domain.Dimension]map[string]int {
	return FacetCounts(items, q, dims...)
}

// Project runs the pipeline with default settings and no paging.
func Project(items []*domain.Item, raw domain.RawQuery) Result {
	return NewEngine().Project(items, raw, Page{})
}

func paginate(ranked []*domain.Item, q domain.Query, page Page) Result {
	total := len(ranked)
	res := Result{Total: total, Query: q, Page: 1}

	if page.Size <= 0 {
		res.Items = ranked
		res.PageSize = total
		if total > 0 {
			res.TotalPages = 1
		}
		return res
	}

	res.Page = max(page.Number, 1)
	res.PageSize = page.Size
	res.TotalPages = total / page.Size
	if total%page.Size != 0 {
		res.TotalPages++
	}

	// compare pages, not offsets; Page*Size can overflow
	if res.Page > res.TotalPages {
		res.Items = []*domain.Item{}
		return res
	}
	start := (res.Page - 1) * page.Size
	end := start + min(page.Size, total-start)
	res.Items = ranked[start:end]
	return res
}
