// internal/core/catalog/predicate.go
package catalog

import (
	"strings"
	"sync"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

// Clause names one conjunct of the match rule. Facet clauses use the
// dimension name.
type Clause string

const (
	ClauseText    Clause = "text"
	ClausePrice   Clause = "price"
	ClauseInStock Clause = "in_stock"
)

// Breakdown records the outcome of every active clause for one item.
// Unconstrained clauses are absent.
type Breakdown map[Clause]bool

// Matched is true when no clause failed.
func (b Breakdown) Matched() bool {
	for _, ok := range b {
		if !ok {
			return false
		}
	}
	return true
}

// Failed returns the failing clauses.
func (b Breakdown) Failed() []Clause {
	var out []Clause
	for c, ok := range b {
		if !ok {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether item satisfies q. Clauses are AND'd; values
// within one facet are OR'd.
func Matches(item *domain.Item, q domain.Query) bool {
	if q.Text != "" && !matchText(item, q) {
		return false
	}
	if item.Price < q.Price.Min || item.Price > q.Price.Max {
		return false
	}
	if q.InStockOnly && item.StockCount <= 0 {
		return false
	}
	for _, dim := range domain.AllDimensions {
		if active, ok := matchDimension(item, q, dim); active && !ok {
			return false
		}
	}
	return true
}

// Explain evaluates every active clause without short-circuiting.
func Explain(item *domain.Item, q domain.Query) Breakdown {
	b := Breakdown{ClausePrice: item.Price >= q.Price.Min && item.Price <= q.Price.Max}
	if q.Text != "" {
		b[ClauseText] = matchText(item, q)
	}
	if q.InStockOnly {
		b[ClauseInStock] = item.StockCount > 0
	}
	for _, dim := range domain.AllDimensions {
		if active, ok := matchDimension(item, q, dim); active {
			b[Clause(dim)] = ok
		}
	}
	return b
}

// Filter returns the matching items in catalog order.
func Filter(items []*domain.Item, q domain.Query) []*domain.Item {
	out := make([]*domain.Item, 0, len(items))
	for _, it := range items {
		if Matches(it, q) {
			out = append(out, it)
		}
	}
	return out
}

func matchText(item *domain.Item, q domain.Query) bool {
	if containsFold(item.Title, q.Text) || containsFold(item.Brand, q.Text) {
		return true
	}
	for _, tag := range item.Tags {
		if containsFold(tag, q.Text) {
			return true
		}
	}
	return q.SearchDescription && containsFold(item.Description, q.Text)
}

// containsFold expects needle to be lower-cased already.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// matchDimension returns active=false when q leaves dim unconstrained.
func matchDimension(item *domain.Item, q domain.Query, dim domain.Dimension) (active, ok bool) {
	switch dim {
	case domain.DimCategory:
		return !q.Categories.Empty(), q.Categories.Has(item.Category)
	case domain.DimSubCategory:
		return !q.SubCategories.Empty(), q.SubCategories.Has(item.SubCategory)
	case domain.DimSize:
		return !q.Sizes.Empty(), q.Sizes.HasAny(item.Sizes)
	case domain.DimMaterial:
		return !q.Materials.Empty(), q.Materials.HasAny(item.Materials)
	case domain.DimCondition:
		return !q.Conditions.Empty(), q.Conditions.Has(item.Condition)
	case domain.DimBrand:
		return !q.Brands.Empty(), q.Brands.Has(BrandKey(item.Brand))
	case domain.DimStatus:
		return !q.Statuses.Empty(), q.Statuses.Has(item.Status)
	case domain.DimGender:
		return !q.Genders.Empty(), q.Genders.Has(item.Gender)
	case domain.DimOccasion:
		return !q.Occasions.Empty(), q.Occasions.Has(item.Occasion)
	case domain.DimSeason:
		return !q.Seasons.Empty(), q.Seasons.Has(item.Season)
	case domain.DimStyle:
		return !q.Styles.Empty(), q.Styles.Has(item.StyleCategory)
	}
	return false, true
}

type memoKey struct {
	item  string
	query uint64
}

// Memo caches predicate results by (item id, query hash). Both halves of
// the key are immutable for a catalog snapshot, so a Memo must be Reset
// whenever the snapshot is replaced.
type Memo struct {
	mu      sync.RWMutex
	entries map[memoKey]bool
	limit   int
}

// NewMemo creates a memo holding at most limit results. It is cleared
// when full. limit <= 0 means unbounded.
func NewMemo(limit int) *Memo {
	return &Memo{entries: make(map[memoKey]bool), limit: limit}
}

// Matches is a memoized Matches. hash must be q.Hash().
func (m *Memo) Matches(item *domain.Item, q domain.Query, hash uint64) bool {
	key := memoKey{item: item.ID, query: hash}

	m.mu.RLock()
	v, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return v
	}

	v = Matches(item, q)

	m.mu.Lock()
	if m.limit > 0 && len(m.entries) >= m.limit {
		clear(m.entries)
	}
	m.entries[key] = v
	m.mu.Unlock()
	return v
}

// Filter is Filter backed by the memo.
func (m *Memo) Filter(items []*domain.Item, q domain.Query) []*domain.Item {
	hash := q.Hash()
	out := make([]*domain.Item, 0, len(items))
	for _, it := range items {
		if m.Matches(it, q, hash) {
			out = append(out, it)
		}
	}
	return out
}

func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memo) Reset() {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
}
