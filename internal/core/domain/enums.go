// internal/core/domain/enums.go
package domain

import (
	"slices"
	"strings"
)

// Category is a top-level department of the closed taxonomy
type Category string

const (
	CategoryTops        Category = "tops"
	CategoryBottoms     Category = "bottoms"
	CategoryDresses     Category = "dresses"
	CategoryOuterwear   Category = "outerwear"
	CategoryKnitwear    Category = "knitwear"
	CategoryShoes       Category = "shoes"
	CategoryBags        Category = "bags"
	CategoryAccessories Category = "accessories"
)

// SubCategory is a leaf of the closed taxonomy; every subcategory has exactly one parent.
type SubCategory string

const (
	SubTShirts    SubCategory = "t-shirts"
	SubBlouses    SubCategory = "blouses"
	SubShirts     SubCategory = "shirts"
	SubTankTops   SubCategory = "tank-tops"
	SubJeans      SubCategory = "jeans"
	SubTrousers   SubCategory = "trousers"
	SubSkirts     SubCategory = "skirts"
	SubShorts     SubCategory = "shorts"
	SubMiniDress  SubCategory = "mini-dresses"
	SubMidiDress  SubCategory = "midi-dresses"
	SubMaxiDress  SubCategory = "maxi-dresses"
	SubJumpsuits  SubCategory = "jumpsuits"
	SubJackets    SubCategory = "jackets"
	SubCoats      SubCategory = "coats"
	SubBlazers    SubCategory = "blazers"
	SubGilets     SubCategory = "gilets"
	SubJumpers    SubCategory = "jumpers"
	SubCardigans  SubCategory = "cardigans"
	SubSneakers   SubCategory = "sneakers"
	SubBoots      SubCategory = "boots"
	SubHeels      SubCategory = "heels"
	SubFlats      SubCategory = "flats"
	SubSandals    SubCategory = "sandals"
	SubHandbags   SubCategory = "handbags"
	SubBackpacks  SubCategory = "backpacks"
	SubTotes      SubCategory = "totes"
	SubClutches   SubCategory = "clutches"
	SubScarves    SubCategory = "scarves"
	SubBelts      SubCategory = "belts"
	SubHats       SubCategory = "hats"
	SubSunglasses SubCategory = "sunglasses"
	SubJewelry    SubCategory = "jewelry"
)

// Taxonomy maps each category to its subcategories in display order.
var Taxonomy = map[Category][]SubCategory{
	CategoryTops:        {SubTShirts, SubBlouses, SubShirts, SubTankTops},
	CategoryBottoms:     {SubJeans, SubTrousers, SubSkirts, SubShorts},
	CategoryDresses:     {SubMiniDress, SubMidiDress, SubMaxiDress, SubJumpsuits},
	CategoryOuterwear:   {SubJackets, SubCoats, SubBlazers, SubGilets},
	CategoryKnitwear:    {SubJumpers, SubCardigans},
	CategoryShoes:       {SubSneakers, SubBoots, SubHeels, SubFlats, SubSandals},
	CategoryBags:        {SubHandbags, SubBackpacks, SubTotes, SubClutches},
	CategoryAccessories: {SubScarves, SubBelts, SubHats, SubSunglasses, SubJewelry},
}

var (
	AllCategories = []Category{
		CategoryTops, CategoryBottoms, CategoryDresses, CategoryOuterwear,
		CategoryKnitwear, CategoryShoes, CategoryBags, CategoryAccessories,
	}
	AllSubCategories = func() []SubCategory {
		var out []SubCategory
		for _, c := range AllCategories {
			out = append(out, Taxonomy[c]...)
		}
		return out
	}()
	subCategoryParent = func() map[SubCategory]Category {
		m := make(map[SubCategory]Category)
		for c, subs := range Taxonomy {
			for _, s := range subs {
				m[s] = c
			}
		}
		return m
	}()
)

func (c Category) Valid() bool { return slices.Contains(AllCategories, c) }

func (s SubCategory) Valid() bool {
	_, ok := subCategoryParent[s]
	return ok
}

// Parent returns the category a subcategory belongs to.
func (s SubCategory) Parent() (Category, bool) {
	c, ok := subCategoryParent[s]
	return c, ok
}

// Size of a garment or shoe
type Size string

const (
	SizeXXS     Size = "XXS"
	SizeXS      Size = "XS"
	SizeS       Size = "S"
	SizeM       Size = "M"
	SizeL       Size = "L"
	SizeXL      Size = "XL"
	SizeXXL     Size = "XXL"
	SizeOneSize Size = "One Size"
	SizeEU36    Size = "EU 36"
	SizeEU37    Size = "EU 37"
	SizeEU38    Size = "EU 38"
	SizeEU39    Size = "EU 39"
	SizeEU40    Size = "EU 40"
	SizeEU41    Size = "EU 41"
	SizeEU42    Size = "EU 42"
	SizeEU43    Size = "EU 43"
	SizeEU44    Size = "EU 44"
	SizeEU45    Size = "EU 45"
)

var AllSizes = []Size{
	SizeXXS, SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeOneSize,
	SizeEU36, SizeEU37, SizeEU38, SizeEU39, SizeEU40,
	SizeEU41, SizeEU42, SizeEU43, SizeEU44, SizeEU45,
}

func (s Size) Valid() bool { return slices.Contains(AllSizes, s) }

// Material of an item
type Material string

const (
	MaterialCotton    Material = "Cotton"
	MaterialWool      Material = "Wool"
	MaterialSilk      Material = "Silk"
	MaterialLinen     Material = "Linen"
	MaterialDenim     Material = "Denim"
	MaterialLeather   Material = "Leather"
	MaterialSuede     Material = "Suede"
	MaterialCashmere  Material = "Cashmere"
	MaterialPolyester Material = "Polyester"
	MaterialViscose   Material = "Viscose"
	MaterialNylon     Material = "Nylon"
	MaterialCanvas    Material = "Canvas"
)

var AllMaterials = []Material{
	MaterialCotton, MaterialWool, MaterialSilk, MaterialLinen, MaterialDenim, MaterialLeather,
	MaterialSuede, MaterialCashmere, MaterialPolyester, MaterialViscose, MaterialNylon, MaterialCanvas,
}

func (m Material) Valid() bool { return slices.Contains(AllMaterials, m) }

// Condition is ordered; see Rank.
type Condition string

const (
	ConditionLikeNew    Condition = "Like New"
	ConditionExcellent  Condition = "Excellent"
	ConditionGood       Condition = "Good"
	ConditionGentlyUsed Condition = "Gently Used"
	ConditionVintage    Condition = "Vintage"
)

var AllConditions = []Condition{
	ConditionLikeNew, ConditionExcellent, ConditionGood, ConditionGentlyUsed, ConditionVintage,
}

// Rank orders conditions from best (5) to worst (1). Unknown values rank 0.
func (c Condition) Rank() int {
	switch c {
	case ConditionLikeNew:
		return 5
	case ConditionExcellent:
		return 4
	case ConditionGood:
		return 3
	case ConditionGentlyUsed:
		return 2
	case ConditionVintage:
		return 1
	default:
		return 0
	}
}

func (c Condition) Valid() bool { return c.Rank() > 0 }

// Status of a listing
type Status string

const (
	StatusAvailable  Status = "Available"
	StatusSold       Status = "Sold"
	StatusReserved   Status = "Reserved"
	StatusOutOfStock Status = "Out of Stock"
)

var AllStatuses = []Status{StatusAvailable, StatusSold, StatusReserved, StatusOutOfStock}

func (s Status) Valid() bool { return slices.Contains(AllStatuses, s) }

type Gender string

const (
	GenderWomen  Gender = "Women"
	GenderMen    Gender = "Men"
	GenderUnisex Gender = "Unisex"
	GenderKids   Gender = "Kids"
)

var AllGenders = []Gender{GenderWomen, GenderMen, GenderUnisex, GenderKids}

type Occasion string

const (
	OccasionCasual  Occasion = "Casual"
	OccasionWork    Occasion = "Work"
	OccasionFormal  Occasion = "Formal"
	OccasionParty   Occasion = "Party"
	OccasionWedding Occasion = "Wedding"
	OccasionOutdoor Occasion = "Outdoor"
	OccasionLounge  Occasion = "Lounge"
)

var AllOccasions = []Occasion{
	OccasionCasual, OccasionWork, OccasionFormal, OccasionParty,
	OccasionWedding, OccasionOutdoor, OccasionLounge,
}

type Season string

const (
	SeasonSpring    Season = "Spring"
	SeasonSummer    Season = "Summer"
	SeasonAutumn    Season = "Autumn"
	SeasonWinter    Season = "Winter"
	SeasonAllSeason Season = "All Season"
)

var AllSeasons = []Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter, SeasonAllSeason}

type StyleCategory string

const (
	StyleClassic    StyleCategory = "Classic"
	StyleStreetwear StyleCategory = "Streetwear"
	StyleBohemian   StyleCategory = "Bohemian"
	StyleMinimalist StyleCategory = "Minimalist"
	StyleRetro      StyleCategory = "Retro"
	StyleSporty     StyleCategory = "Sporty"
	StylePreppy     StyleCategory = "Preppy"
	StyleGlam       StyleCategory = "Glam"
)

var AllStyles = []StyleCategory{
	StyleClassic, StyleStreetwear, StyleBohemian, StyleMinimalist,
	StyleRetro, StyleSporty, StylePreppy, StyleGlam,
}

// ParseEnum resolves a loosely typed value against a closed set.
// Matching ignores case, spaces, hyphens and underscores, so "like-new",
// "LIKE_NEW" and "Like New" all resolve to the same value.
func ParseEnum[T ~string](raw string, all []T) (T, bool) {
	key := enumKey(raw)
	if key == "" {
		return "", false
	}
	for _, v := range all {
		if enumKey(string(v)) == key {
			return v, true
		}
	}
	return "", false
}

// Canonical is ParseEnum for input that must be kept when unrecognized, so
// that validation can report the original value. Empty stays empty.
func Canonical[T ~string](raw string, all []T) T {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if v, ok := ParseEnum(raw, all); ok {
		return v
	}
	return T(raw)
}

// CanonicalAll applies Canonical to every value.
func CanonicalAll[T ~string](raw []string, all []T) []T {
	if raw == nil {
		return nil
	}
	out := make([]T, len(raw))
	for i, r := range raw {
		out[i] = Canonical(r, all)
	}
	return out
}

func enumKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
