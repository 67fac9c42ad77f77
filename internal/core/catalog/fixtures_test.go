// internal/core/catalog/fixtures_test.go
package catalog_test

import (
	"time"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

var baseDate = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func item(id string, overrides ...func(*domain.Item)) *domain.Item {
	it := &domain.Item{
		ID:          id,
		Title:       "Item " + id,
		Brand:       "Generic",
		Category:    domain.CategoryTops,
		SubCategory: domain.SubTShirts,
		Price:       25,
		Sizes:       []domain.Size{domain.SizeM},
		Materials:   []domain.Material{domain.MaterialCotton},
		Condition:   domain.ConditionGood,
		Status:      domain.StatusAvailable,
		StockCount:  1,
		DateAdded:   baseDate,
	}
	for _, o := range overrides {
		o(it)
	}
	return it
}

// scenarioCatalog is the two-item catalog used across the acceptance scenarios.
func scenarioCatalog() []*domain.Item {
	return []*domain.Item{
		item("jacket", func(i *domain.Item) {
			i.Title = "Blue Denim Jacket"
			i.Brand = "Zara"
			i.Price = 40
			i.Condition = domain.ConditionGood
			i.StockCount = 3
			i.DateAdded = baseDate.Add(-24 * time.Hour)
		}),
		item("scarf", func(i *domain.Item) {
			i.Title = "Red Silk Scarf"
			i.Brand = "Mango"
			i.Price = 15
			i.Condition = domain.ConditionLikeNew
			i.StockCount = 0
			i.DateAdded = baseDate
		}),
	}
}

func ids(items []*domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// unconstrained returns raw input with every facet explicitly empty.
func unconstrained() map[domain.Dimension][]string {
	m := make(map[domain.Dimension][]string)
	for _, d := range domain.AllDimensions {
		m[d] = []string{}
	}
	return m
}
