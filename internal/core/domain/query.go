// internal/core/domain/query.go
package domain

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Dimension names one independently filterable facet of an item.
type Dimension string

const (
	DimCategory    Dimension = "category"
	DimSubCategory Dimension = "sub_category"
	DimSize        Dimension = "size"
	DimMaterial    Dimension = "material"
	DimCondition   Dimension = "condition"
	DimBrand       Dimension = "brand"
	DimStatus      Dimension = "status"
	DimGender      Dimension = "gender"
	DimOccasion    Dimension = "occasion"
	DimSeason      Dimension = "season"
	DimStyle       Dimension = "style"
)

// AllDimensions in canonical order.
var AllDimensions = []Dimension{
	DimCategory, DimSubCategory, DimSize, DimMaterial, DimCondition, DimBrand,
	DimStatus, DimGender, DimOccasion, DimSeason, DimStyle,
}

// ParseDimension accepts the canonical name as well as camelCase spellings.
func ParseDimension(raw string) (Dimension, bool) {
	switch enumKey(raw) {
	case "stylecategory":
		return DimStyle, true
	case "subcategory":
		return DimSubCategory, true
	}
	return ParseEnum(raw, AllDimensions)
}

// SortMode selects the Ranking order
type SortMode string

const (
	SortNewest    SortMode = "newest"
	SortPriceLow  SortMode = "price-low"
	SortPriceHigh SortMode = "price-high"
	SortName      SortMode = "name"
	SortCondition SortMode = "condition"
)

var AllSortModes = []SortMode{SortNewest, SortPriceLow, SortPriceHigh, SortName, SortCondition}

// PriceRange is an inclusive [Min, Max] pair in whole currency units.
type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// DefaultPriceRange applies when neither the caller nor the catalog supplies bounds.
var DefaultPriceRange = PriceRange{Min: 0, Max: 1000}

// Set is an unordered, deduplicated selection of facet values.
type Set[T ~string] map[T]struct{}

// NewSet builds a set from values.
func NewSet[T ~string](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

func (s Set[T]) Empty() bool { return len(s) == 0 }

// Sorted returns the members in lexical order.
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// HasAny reports whether any of values is a member.
func (s Set[T]) HasAny(values []T) bool {
	for _, v := range values {
		if s.Has(v) {
			return true
		}
	}
	return false
}

// Query is the canonical, validated filter/search/sort state. Build it with
// the catalog Normalizer and treat it as an immutable value: every set is
// non-nil and an empty set leaves its dimension unconstrained.
type Query struct {
	// Text is trimmed and lower-cased.
	Text              string
	SearchDescription bool

	Categories    Set[Category]
	SubCategories Set[SubCategory]
	Sizes         Set[Size]
	Materials     Set[Material]
	Conditions    Set[Condition]
	// Brands are stored lower-cased; brand matching is case-insensitive.
	Brands    Set[string]
	Statuses  Set[Status]
	Genders   Set[Gender]
	Occasions Set[Occasion]
	Seasons   Set[Season]
	Styles    Set[StyleCategory]

	Price       PriceRange
	InStockOnly bool
	Sort        SortMode
}

// Selected returns the selected values of one dimension in lexical order.
func (q Query) Selected(dim Dimension) []string {
	switch dim {
	case DimCategory:
		return toStrings(q.Categories.Sorted())
	case DimSubCategory:
		return toStrings(q.SubCategories.Sorted())
	case DimSize:
		return toStrings(q.Sizes.Sorted())
	case DimMaterial:
		return toStrings(q.Materials.Sorted())
	case DimCondition:
		return toStrings(q.Conditions.Sorted())
	case DimBrand:
		return q.Brands.Sorted()
	case DimStatus:
		return toStrings(q.Statuses.Sorted())
	case DimGender:
		return toStrings(q.Genders.Sorted())
	case DimOccasion:
		return toStrings(q.Occasions.Sorted())
	case DimSeason:
		return toStrings(q.Seasons.Sorted())
	case DimStyle:
		return toStrings(q.Styles.Sorted())
	}
	return nil
}

// Without returns a copy of q with dim unconstrained.
func (q Query) Without(dim Dimension) Query {
	switch dim {
	case DimCategory:
		q.Categories = Set[Category]{}
	case DimSubCategory:
		q.SubCategories = Set[SubCategory]{}
	case DimSize:
		q.Sizes = Set[Size]{}
	case DimMaterial:
		q.Materials = Set[Material]{}
	case DimCondition:
		q.Conditions = Set[Condition]{}
	case DimBrand:
		q.Brands = Set[string]{}
	case DimStatus:
		q.Statuses = Set[Status]{}
	case DimGender:
		q.Genders = Set[Gender]{}
	case DimOccasion:
		q.Occasions = Set[Occasion]{}
	case DimSeason:
		q.Seasons = Set[Season]{}
	case DimStyle:
		q.Styles = Set[StyleCategory]{}
	}
	return q
}

// Raw converts q back into raw input form. Every dimension is present, so a
// round trip through the Normalizer reproduces q exactly.
func (q Query) Raw() RawQuery {
	facets := make(map[Dimension][]string, len(AllDimensions))
	for _, d := range AllDimensions {
		facets[d] = q.Selected(d)
	}
	lo, hi := q.Price.Min, q.Price.Max
	return RawQuery{
		Text:              q.Text,
		SearchDescription: q.SearchDescription,
		Facets:            facets,
		PriceMin:          &lo,
		PriceMax:          &hi,
		InStock:           q.InStockOnly,
		Sort:              string(q.Sort),
	}
}

// Hash is a stable fingerprint of q, independent of set iteration order.
func (q Query) Hash() uint64 {
	var b strings.Builder
	b.WriteString(q.Text)
	b.WriteByte(0)
	b.WriteString(strconv.FormatBool(q.SearchDescription))
	for _, d := range AllDimensions {
		b.WriteByte(0)
		b.WriteString(string(d))
		b.WriteByte('=')
		b.WriteString(strings.Join(q.Selected(d), "\x1f"))
	}
	b.WriteByte(0)
	b.WriteString(strconv.FormatInt(q.Price.Min, 10))
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(q.Price.Max, 10))
	b.WriteByte(0)
	b.WriteString(strconv.FormatBool(q.InStockOnly))
	b.WriteByte(0)
	b.WriteString(string(q.Sort))
	return xxhash.Sum64String(b.String())
}

// Key renders Hash as a cache key fragment.
func (q Query) Key() string {
	return strconv.FormatUint(q.Hash(), 16)
}

// RawQuery is loosely typed browsing input as it arrives from a request.
type RawQuery struct {
	Text              string
	SearchDescription bool
	// Facets maps a dimension to raw selected values. An absent status key
	// means the default {Available}; a present but empty one means unconstrained.
	Facets   map[Dimension][]string
	PriceMin *int64
	PriceMax *int64
	InStock  bool
	Sort     string
	// Route values come from collection paths and are merged into the facets.
	RouteCategory    string
	RouteSubCategory string
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
