// internal/core/catalog/facets.go
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

// Selector extracts the facet values of one item. Single-valued fields
// return one value, multi-valued fields return all of them.
type Selector func(item *domain.Item) []string

// SelectorFor returns the Selector for a dimension, or nil if unknown.
func SelectorFor(dim domain.Dimension) Selector {
	switch dim {
	case domain.DimCategory:
		return single(func(i *domain.Item) domain.Category { return i.Category })
	case domain.DimSubCategory:
		return single(func(i *domain.Item) domain.SubCategory { return i.SubCategory })
	case domain.DimSize:
		return func(i *domain.Item) []string { return toStrings(i.Sizes) }
	case domain.DimMaterial:
		return func(i *domain.Item) []string { return toStrings(i.Materials) }
	case domain.DimCondition:
		return single(func(i *domain.Item) domain.Condition { return i.Condition })
	case domain.DimBrand:
		return single(func(i *domain.Item) string { return i.Brand })
	case domain.DimStatus:
		return single(func(i *domain.Item) domain.Status { return i.Status })
	case domain.DimGender:
		return single(func(i *domain.Item) domain.Gender { return i.Gender })
	case domain.DimOccasion:
		return single(func(i *domain.Item) domain.Occasion { return i.Occasion })
	case domain.DimSeason:
		return single(func(i *domain.Item) domain.Season { return i.Season })
	case domain.DimStyle:
		return single(func(i *domain.Item) domain.StyleCategory { return i.StyleCategory })
	}
	return nil
}

// CountsByValue counts items per facet value. An item contributes at most
// once to each distinct value it carries; empty values are skipped.
func CountsByValue(items []*domain.Item, sel Selector) map[string]int {
	counts := make(map[string]int)
	seen := make(map[string]struct{})
	for _, it := range items {
		clear(seen)
		for _, v := range sel(it) {
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			counts[v]++
		}
	}
	return counts
}

// FacetCounts computes cross-filtered counts: the counts for a dimension
// come from the items that pass every active clause of q except that
// dimension's own, so each count is what the user would get by adding
// the value to the current selection.
func FacetCounts(items []*domain.Item, q domain.Query, dims ...domain.Dimension) map[domain.Dimension]map[string]int {
	if len(dims) == 0 {
		dims = domain.AllDimensions
	}
	out := make(map[domain.Dimension]map[string]int, len(dims))
	pools := make(map[domain.Dimension][]*domain.Item, len(dims))
	for _, d := range dims {
		out[d] = map[string]int{}
	}

	for _, it := range items {
		failed := Explain(it, q).Failed()
		switch len(failed) {
		case 0:
			for _, d := range dims {
				pools[d] = append(pools[d], it)
			}
		case 1:
			d := domain.Dimension(failed[0])
			if _, want := out[d]; want {
				pools[d] = append(pools[d], it)
			}
		}
	}

	for _, d := range dims {
		sel := SelectorFor(d)
		if sel == nil {
			continue
		}
		out[d] = CountsByValue(pools[d], sel)
		if d == domain.DimBrand {
			out[d] = foldBrands(out[d])
		}
	}
	return out
}

// foldBrands merges spellings that share a BrandKey into one value, labelled
// with the most common spelling (ties go to the smallest).
func foldBrands(counts map[string]int) map[string]int {
	type brand struct {
		label string
		seen  int
		total int
	}
	byKey := make(map[string]*brand, len(counts))
	for raw, n := range counts {
		key := BrandKey(raw)
		if key == "" {
			continue
		}
		label := strings.TrimSpace(raw)
		b, ok := byKey[key]
		if !ok {
			byKey[key] = &brand{label: label, seen: n, total: n}
			continue
		}
		b.total += n
		if n > b.seen || (n == b.seen && label < b.label) {
			b.label, b.seen = label, n
		}
	}

	out := make(map[string]int, len(byKey))
	for _, b := range byKey {
		out[b.label] = b.total
	}
	return out
}

// FacetValue is one value with its count.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Top returns up to n values ordered by count descending, then value, plus
// how many values were left out. n <= 0 returns all values.
func Top(counts map[string]int, n int) ([]FacetValue, int) {
	vals := make([]FacetValue, 0, len(counts))
	for v, c := range counts {
		vals = append(vals, FacetValue{Value: v, Count: c})
	}
	slices.SortFunc(vals, func(a, b FacetValue) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
	if n <= 0 || n >= len(vals) {
		return vals, 0
	}
	return vals[:n], len(vals) - n
}

func single[T ~string](get func(*domain.Item) T) Selector {
	return func(i *domain.Item) []string { return []string{string(get(i))} }
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
