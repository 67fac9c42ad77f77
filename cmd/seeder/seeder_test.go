// cmd/seeder/seeder_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/preloved-be/internal/adapters/spreadsheet"
	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/test/helpers"
)

func TestLoadFixture_SampleCatalog(t *testing.T) {
	items, err := loadFixture(filepath.Join("fixtures", "sample_catalog.yaml"))
	require.NoError(t, err)
	require.Len(t, items, 8)

	jacket := items[0]
	assert.Equal(t, "Blue Denim Jacket", jacket.Title)
	assert.Equal(t, domain.CategoryOuterwear, jacket.Category)
	assert.Equal(t, domain.SubJackets, jacket.SubCategory)
	assert.Equal(t, domain.ConditionGood, jacket.Condition)
	assert.Equal(t, []domain.Material{domain.MaterialDenim}, jacket.Materials)
	assert.Equal(t, domain.StyleStreetwear, jacket.StyleCategory)
	require.NotNil(t, jacket.OriginalPrice)
	assert.Equal(t, int64(89), *jacket.OriginalPrice)
	assert.Equal(t, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), jacket.DateAdded.UTC())

	scarf := items[1]
	assert.Equal(t, domain.ConditionLikeNew, scarf.Condition)
	assert.Equal(t, []domain.Size{domain.SizeOneSize}, scarf.Sizes)
	assert.Equal(t, domain.SeasonAllSeason, scarf.Season)
	assert.False(t, scarf.IsPurchasable(), "zero stock is not purchasable")

	// status defaults to available when omitted
	assert.Equal(t, domain.StatusAvailable, items[2].Status)
	assert.Equal(t, domain.StatusSold, items[7].Status)
}

func TestLoadFixture_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		errorMsg string
	}{
		{
			name:     "unknown_field",
			content:  "items:\n  - title: Hat\n    colour: red\n",
			errorMsg: "field colour not found",
		},
		{
			name:     "unknown_category",
			content:  "items:\n  - title: Lamp\n    category: furniture\n    price: 10\n",
			errorMsg: "invalid category",
		},
		{
			name:     "subcategory_of_other_category",
			content:  "items:\n  - title: Boots\n    category: bags\n    sub_category: boots\n    price: 10\n",
			errorMsg: "does not belong to category",
		},
		{
			name:     "missing_title",
			content:  "items:\n  - category: tops\n    price: 10\n",
			errorMsg: "title is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := loadFixture(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestGenerateItems(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	items := generateItems(160, 42, now)
	require.Len(t, items, 160)

	perCategory := make(map[domain.Category]int)
	for _, item := range items {
		require.NoError(t, item.Validate(), item.Title)
		assert.NotEmpty(t, item.Sizes)
		assert.False(t, item.DateAdded.After(now))
		if item.Status == domain.StatusSold || item.Status == domain.StatusOutOfStock {
			assert.Zero(t, item.StockCount)
		}
		if item.OriginalPrice != nil {
			assert.GreaterOrEqual(t, *item.OriginalPrice, item.Price)
		}
		perCategory[item.Category]++
	}

	for _, c := range domain.AllCategories {
		assert.Equal(t, 20, perCategory[c], string(c))
	}
}

func TestGenerateItems_Deterministic(t *testing.T) {
	now := time.Now().UTC()
	a := generateItems(25, 7, now)
	b := generateItems(25, 7, now)
	c := generateItems(25, 8, now)

	titles := func(items []*domain.Item) []string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Title
		}
		return out
	}
	assert.Equal(t, titles(a), titles(b))
	assert.NotEqual(t, titles(a), titles(c))
}

func TestSeedCmd_DryRun(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "--fixture", filepath.Join("fixtures", "sample_catalog.yaml"), "--generate", "8", "--dry-run", "--log-level", "error"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "16 items would be seeded")
	assert.Contains(t, out.String(), "outerwear")
}

func TestSeedCmd_RequiresSource(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"seed"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to seed")
}

func TestCollectItems_Workbook(t *testing.T) {
	b, err := spreadsheet.Bytes(helpers.CreateTestItems(3))
	require.NoError(t, err)
	path := helpers.CreateTempFile(t, b, ".xlsx")

	items, err := collectItems("", path, 0, 1, helpers.TestLogger())
	require.NoError(t, err)
	assert.Len(t, items, 3)
}
