// internal/core/catalog/normalize.go

// Package catalog implements filtering, ranking, facet counting and result
// projection over an in-memory catalog snapshot. Every function here is pure:
// inputs are never mutated and no I/O is performed.
package catalog

import (
	"strings"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

// Dropped is a raw facet value the Normalizer could not resolve.
type Dropped struct {
	Dimension domain.Dimension `json:"dimension"`
	Value     string           `json:"value"`
}

// Normalizer turns raw browsing input into a canonical Query.
type Normalizer struct {
	// Bounds fill in a missing price bound.
	Bounds domain.PriceRange
}

// NewNormalizer returns a Normalizer defaulting missing price bounds to bounds.
func NewNormalizer(bounds domain.PriceRange) Normalizer {
	return Normalizer{Bounds: bounds}
}

// Normalize uses DefaultPriceRange for missing price bounds.
func Normalize(raw domain.RawQuery) domain.Query {
	return NewNormalizer(domain.DefaultPriceRange).Normalize(raw)
}

// Normalize never fails; unusable values are dropped.
func (n Normalizer) Normalize(raw domain.RawQuery) domain.Query {
	q, _ := n.NormalizeReport(raw)
	return q
}

// NormalizeReport is Normalize plus the list of dropped values, for callers
// that want to log them.
func (n Normalizer) NormalizeReport(raw domain.RawQuery) (domain.Query, []Dropped) {
	var dropped []Dropped

	for dim := range raw.Facets {
		if _, ok := domain.ParseDimension(string(dim)); !ok {
			dropped = append(dropped, Dropped{Dimension: dim})
		}
	}
	facet := func(dim domain.Dimension) []string {
		var out []string
		for d, values := range raw.Facets {
			if canon, ok := domain.ParseDimension(string(d)); ok && canon == dim {
				out = append(out, values...)
			}
		}
		return out
	}

	q := domain.Query{
		Text:              strings.ToLower(strings.TrimSpace(raw.Text)),
		SearchDescription: raw.SearchDescription,
		Categories:        parseSet(domain.DimCategory, facet(domain.DimCategory), domain.AllCategories, &dropped),
		SubCategories:     parseSet(domain.DimSubCategory, facet(domain.DimSubCategory), domain.AllSubCategories, &dropped),
		Sizes:             parseSet(domain.DimSize, facet(domain.DimSize), domain.AllSizes, &dropped),
		Materials:         parseSet(domain.DimMaterial, facet(domain.DimMaterial), domain.AllMaterials, &dropped),
		Conditions:        parseSet(domain.DimCondition, facet(domain.DimCondition), domain.AllConditions, &dropped),
		Brands:            parseBrands(facet(domain.DimBrand)),
		Genders:           parseSet(domain.DimGender, facet(domain.DimGender), domain.AllGenders, &dropped),
		Occasions:         parseSet(domain.DimOccasion, facet(domain.DimOccasion), domain.AllOccasions, &dropped),
		Seasons:           parseSet(domain.DimSeason, facet(domain.DimSeason), domain.AllSeasons, &dropped),
		Styles:            parseSet(domain.DimStyle, facet(domain.DimStyle), domain.AllStyles, &dropped),
		InStockOnly:       raw.InStock,
		Sort:              normalizeSort(raw.Sort),
	}

	if hasDimension(raw.Facets, domain.DimStatus) {
		q.Statuses = parseSet(domain.DimStatus, facet(domain.DimStatus), domain.AllStatuses, &dropped)
	} else {
		q.Statuses = domain.NewSet(domain.StatusAvailable)
	}

	n.applyRoute(&q, raw, &dropped)
	q.Price = n.priceRange(raw.PriceMin, raw.PriceMax)

	return q, dropped
}

func (n Normalizer) applyRoute(q *domain.Query, raw domain.RawQuery, dropped *[]Dropped) {
	if raw.RouteCategory != "" {
		if c, ok := domain.ParseEnum(raw.RouteCategory, domain.AllCategories); ok {
			q.Categories[c] = struct{}{}
		} else {
			*dropped = append(*dropped, Dropped{Dimension: domain.DimCategory, Value: raw.RouteCategory})
		}
	}
	if raw.RouteSubCategory != "" {
		sub, ok := domain.ParseEnum(raw.RouteSubCategory, domain.AllSubCategories)
		if !ok {
			*dropped = append(*dropped, Dropped{Dimension: domain.DimSubCategory, Value: raw.RouteSubCategory})
			return
		}
		q.SubCategories[sub] = struct{}{}
		// A bare subcategory route implies its parent department.
		if raw.RouteCategory == "" {
			parent, _ := sub.Parent()
			q.Categories[parent] = struct{}{}
		}
	}
}

func (n Normalizer) priceRange(minIn, maxIn *int64) domain.PriceRange {
	lo, hi := n.Bounds.Min, n.Bounds.Max
	if minIn != nil {
		lo = *minIn
	}
	if maxIn != nil {
		hi = *maxIn
	}
	lo, hi = max(lo, 0), max(hi, 0)
	if lo > hi {
		lo, hi = hi, lo
	}
	return domain.PriceRange{Min: lo, Max: hi}
}

// PriceBounds derives default price bounds for a catalog: fallback widened
// so that no listed price falls outside it.
func PriceBounds(items []*domain.Item, fallback domain.PriceRange) domain.PriceRange {
	out := fallback
	for _, it := range items {
		if it.Price > out.Max {
			out.Max = it.Price
		}
	}
	return out
}

func parseSet[T ~string](dim domain.Dimension, raw []string, all []T, dropped *[]Dropped) domain.Set[T] {
	out := make(domain.Set[T], len(raw))
	for _, r := range raw {
		v, ok := domain.ParseEnum(r, all)
		if !ok {
			*dropped = append(*dropped, Dropped{Dimension: dim, Value: r})
			continue
		}
		out[v] = struct{}{}
	}
	return out
}

// BrandKey is the form brands are compared in. Brands are free text, so
// "Zara", " zara" and "ZARA" are one brand.
func BrandKey(brand string) string {
	return strings.ToLower(strings.TrimSpace(brand))
}

func parseBrands(raw []string) domain.Set[string] {
	out := make(domain.Set[string], len(raw))
	for _, r := range raw {
		if b := BrandKey(r); b != "" {
			out[b] = struct{}{}
		}
	}
	return out
}

func normalizeSort(raw string) domain.SortMode {
	if m, ok := domain.ParseEnum(raw, domain.AllSortModes); ok {
		return m
	}
	return domain.SortNewest
}

func hasDimension(facets map[domain.Dimension][]string, dim domain.Dimension) bool {
	for d := range facets {
		if canon, ok := domain.ParseDimension(string(d)); ok && canon == dim {
			return true
		}
	}
	return false
}
