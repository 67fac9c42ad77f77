// internal/core/catalog/ranking.go
package catalog

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

// Ranker orders matched items. The zero value sorts names with English collation.
type Ranker struct {
	locale language.Tag
}

// NewRanker returns a Ranker comparing titles under the given locale.
func NewRanker(locale language.Tag) Ranker {
	return Ranker{locale: locale}
}

// Rank sorts with English collation for the name mode.
func Rank(items []*domain.Item, mode domain.SortMode) []*domain.Item {
	return Ranker{}.Rank(items, mode)
}

// Rank returns a new, stably sorted slice; items is left untouched.
// Unknown modes fall back to newest.
func (r Ranker) Rank(items []*domain.Item, mode domain.SortMode) []*domain.Item {
	out := slices.Clone(items)
	if out == nil {
		out = []*domain.Item{}
	}
	slices.SortStableFunc(out, r.comparator(mode))
	return out
}

func (r Ranker) comparator(mode domain.SortMode) func(a, b *domain.Item) int {
	switch mode {
	case domain.SortPriceLow:
		return func(a, b *domain.Item) int { return cmp.Compare(a.Price, b.Price) }
	case domain.SortPriceHigh:
		return func(a, b *domain.Item) int { return cmp.Compare(b.Price, a.Price) }
	case domain.SortName:
		tag := r.locale
		if tag == language.Und {
			tag = language.English
		}
		// Collators keep internal buffers; one per Rank call.
		col := collate.New(tag, collate.IgnoreCase)
		return func(a, b *domain.Item) int { return col.CompareString(a.Title, b.Title) }
	case domain.SortCondition:
		return func(a, b *domain.Item) int { return cmp.Compare(b.Condition.Rank(), a.Condition.Rank()) }
	default:
		return func(a, b *domain.Item) int { return b.DateAdded.Compare(a.DateAdded) }
	}
}
