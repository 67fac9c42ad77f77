// test/helpers/fixtures.go
package helpers

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

var fixtureAdded = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// CreateTestItem returns a valid, purchasable coat with overrides applied
// in order.
func CreateTestItem(overrides ...func(*domain.Item)) *domain.Item {
	item := &domain.Item{
		Title:         "Wool Overcoat",
		Brand:         "COS",
		Category:      domain.CategoryOuterwear,
		SubCategory:   domain.SubCoats,
		Price:         120,
		Images:        []string{"https://images.example.com/coat.jpg"},
		Sizes:         []domain.Size{domain.SizeM},
		Materials:     []domain.Material{domain.MaterialWool},
		Condition:     domain.ConditionExcellent,
		Status:        domain.StatusAvailable,
		StockCount:    1,
		Tags:          []string{"winter", "minimal"},
		Description:   "Double-faced wool coat, barely worn",
		Gender:        domain.GenderWomen,
		Season:        domain.SeasonWinter,
		StyleCategory: domain.StyleMinimalist,
		DateAdded:     fixtureAdded,
		CreatedAt:     fixtureAdded,
		UpdatedAt:     fixtureAdded,
	}
	for _, o := range overrides {
		o(item)
	}
	return item
}

type department struct {
	category domain.Category
	sub      domain.SubCategory
	size     domain.Size
}

var departments = []department{
	{domain.CategoryOuterwear, domain.SubJackets, domain.SizeM},
	{domain.CategoryTops, domain.SubBlouses, domain.SizeS},
	{domain.CategoryBottoms, domain.SubJeans, domain.SizeL},
	{domain.CategoryShoes, domain.SubBoots, domain.SizeEU39},
	{domain.CategoryAccessories, domain.SubScarves, domain.SizeOneSize},
}

// CreateTestItems returns count items with ids item-001.. cycling through
// departments and conditions. Prices rise by 15 from 20 and each item is
// added an hour after the previous one.
func CreateTestItems(count int) []*domain.Item {
	items := make([]*domain.Item, 0, count)
	for i := range count {
		d := departments[i%len(departments)]
		items = append(items, CreateTestItem(func(it *domain.Item) {
			it.ID = fmt.Sprintf("item-%03d", i+1)
			it.Title = fmt.Sprintf("Test Item %d", i+1)
			it.Category = d.category
			it.SubCategory = d.sub
			it.Sizes = []domain.Size{d.size}
			it.Condition = domain.AllConditions[i%len(domain.AllConditions)]
			it.Price = int64(20 + i*15)
			it.DateAdded = fixtureAdded.Add(time.Duration(i) * time.Hour)
		}))
	}
	return items
}

// CompareItems checks the fields that survive a database round trip.
func CompareItems(t *testing.T, want, got *domain.Item) {
	t.Helper()

	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Title, got.Title)
	require.Equal(t, want.Brand, got.Brand)
	require.Equal(t, want.Category, got.Category)
	require.Equal(t, want.SubCategory, got.SubCategory)
	require.Equal(t, want.Price, got.Price)
	require.Equal(t, want.OriginalPrice, got.OriginalPrice)
	require.Equal(t, want.Condition, got.Condition)
	require.Equal(t, want.Status, got.Status)
	require.Equal(t, want.StockCount, got.StockCount)
	require.ElementsMatch(t, want.Sizes, got.Sizes)
	require.ElementsMatch(t, want.Materials, got.Materials)
	require.ElementsMatch(t, want.Tags, got.Tags)
	require.WithinDuration(t, want.DateAdded, got.DateAdded, 0)
}
