// cmd/seeder/fixture.go
package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

// fixture is the on-disk shape of a sample catalog.
type fixture struct {
	Items []*domain.Item `yaml:"items"`
}

// loadFixture reads a YAML catalog. Enum values are accepted in any casing
// and canonicalized before validation.
func loadFixture(path string) ([]*domain.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var f fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}

	for i, item := range f.Items {
		canonicalize(item)
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("fixture item %d (%s): %w", i, item.Title, err)
		}
	}
	return f.Items, nil
}

func canonicalize(item *domain.Item) {
	item.Category = domain.Canonical(string(item.Category), domain.AllCategories)
	item.SubCategory = domain.Canonical(string(item.SubCategory), domain.AllSubCategories)
	item.Condition = domain.Canonical(string(item.Condition), domain.AllConditions)
	item.Status = domain.Canonical(string(item.Status), domain.AllStatuses)
	item.Gender = domain.Canonical(string(item.Gender), domain.AllGenders)
	item.Occasion = domain.Canonical(string(item.Occasion), domain.AllOccasions)
	item.Season = domain.Canonical(string(item.Season), domain.AllSeasons)
	item.StyleCategory = domain.Canonical(string(item.StyleCategory), domain.AllStyles)
	for i, s := range item.Sizes {
		item.Sizes[i] = domain.Canonical(string(s), domain.AllSizes)
	}
	for i, m := range item.Materials {
		item.Materials[i] = domain.Canonical(string(m), domain.AllMaterials)
	}
}
