// cmd/seeder/generate.go
package main

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

var (
	brands = []string{
		"Zara", "Mango", "COS", "Arket", "Levi's", "Ganni", "Acne Studios",
		"Massimo Dutti", "& Other Stories", "Whistles", "Barbour", "Dr. Martens",
	}
	colours = []string{"Black", "Navy", "Cream", "Camel", "Olive", "Burgundy", "Grey", "Blue"}

	nouns = map[domain.SubCategory]string{
		domain.SubTShirts: "T-Shirt", domain.SubBlouses: "Blouse", domain.SubShirts: "Shirt",
		domain.SubTankTops: "Tank Top", domain.SubJeans: "Jeans", domain.SubTrousers: "Trousers",
		domain.SubSkirts: "Skirt", domain.SubShorts: "Shorts", domain.SubMiniDress: "Mini Dress",
		domain.SubMidiDress: "Midi Dress", domain.SubMaxiDress: "Maxi Dress", domain.SubJumpsuits: "Jumpsuit",
		domain.SubJackets: "Jacket", domain.SubCoats: "Coat", domain.SubBlazers: "Blazer",
		domain.SubGilets: "Gilet", domain.SubJumpers: "Jumper", domain.SubCardigans: "Cardigan",
		domain.SubSneakers: "Sneakers", domain.SubBoots: "Boots", domain.SubHeels: "Heels",
		domain.SubFlats: "Flats", domain.SubSandals: "Sandals", domain.SubHandbags: "Handbag",
		domain.SubBackpacks: "Backpack", domain.SubTotes: "Tote", domain.SubClutches: "Clutch",
		domain.SubScarves: "Scarf", domain.SubBelts: "Belt", domain.SubHats: "Hat",
		domain.SubSunglasses: "Sunglasses", domain.SubJewelry: "Necklace",
	}

	// price ceilings per category in whole currency units
	priceCeiling = map[domain.Category]int64{
		domain.CategoryTops: 60, domain.CategoryBottoms: 90, domain.CategoryDresses: 140,
		domain.CategoryOuterwear: 320, domain.CategoryKnitwear: 150, domain.CategoryShoes: 180,
		domain.CategoryBags: 450, domain.CategoryAccessories: 80,
	}

	apparelSizes = []domain.Size{domain.SizeXS, domain.SizeS, domain.SizeM, domain.SizeL, domain.SizeXL}
	shoeSizes    = []domain.Size{domain.SizeEU37, domain.SizeEU38, domain.SizeEU39, domain.SizeEU40, domain.SizeEU41, domain.SizeEU42}
)

// generateItems builds n synthetic listings spread across the taxonomy.
// The same seed always yields the same catalog apart from IDs.
func generateItems(n int, seed uint64, now time.Time) []*domain.Item {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	items := make([]*domain.Item, 0, n)

	for i := range n {
		category := domain.AllCategories[i%len(domain.AllCategories)]
		subs := domain.Taxonomy[category]
		sub := subs[rng.IntN(len(subs))]
		brand := pick(rng, brands)

		price := 5 + rng.Int64N(priceCeiling[category])
		item := &domain.Item{
			Title:         fmt.Sprintf("%s %s %s", brand, pick(rng, colours), nouns[sub]),
			Brand:         brand,
			Category:      category,
			SubCategory:   sub,
			Price:         price,
			Images:        []string{fmt.Sprintf("seed/%s/%04d.jpg", sub, i)},
			Sizes:         sizesFor(rng, category),
			Materials:     []domain.Material{pick(rng, domain.AllMaterials)},
			Condition:     pick(rng, domain.AllConditions),
			Status:        domain.StatusAvailable,
			StockCount:    1 + rng.IntN(3),
			Gender:        pick(rng, domain.AllGenders),
			Occasion:      pick(rng, domain.AllOccasions),
			Season:        pick(rng, domain.AllSeasons),
			StyleCategory: pick(rng, domain.AllStyles),
			Tags:          []string{string(category), string(sub)},
			DateAdded:     now.Add(-time.Duration(rng.IntN(90*24)) * time.Hour),
		}

		// Most listings are marked down from a retail price
		if rng.IntN(4) != 0 {
			original := price + price*int64(20+rng.IntN(60))/100
			item.OriginalPrice = &original
		}

		switch r := rng.IntN(20); {
		case r == 0:
			item.Status = domain.StatusSold
			item.StockCount = 0
		case r == 1:
			item.Status = domain.StatusReserved
		case r == 2:
			item.Status = domain.StatusOutOfStock
			item.StockCount = 0
		}

		items = append(items, item)
	}
	return items
}

func sizesFor(rng *rand.Rand, category domain.Category) []domain.Size {
	switch category {
	case domain.CategoryShoes:
		return []domain.Size{pick(rng, shoeSizes)}
	case domain.CategoryBags, domain.CategoryAccessories:
		return []domain.Size{domain.SizeOneSize}
	default:
		start := rng.IntN(len(apparelSizes) - 1)
		return slices.Clone(apparelSizes[start : start+1+rng.IntN(2)])
	}
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.IntN(len(values))]
}
