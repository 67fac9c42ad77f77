// internal/core/domain/item.go
package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrItemNotFound is returned when an item does not exist or was deleted.
	ErrItemNotFound = errors.New("item not found")
	// ErrValidation wraps every input validation failure.
	ErrValidation = errors.New("validation failed")
)

// Item represents a single catalog listing
type Item struct {
	ID            string        `json:"id" yaml:"id"`
	Title         string        `json:"title" yaml:"title"`
	Brand         string        `json:"brand" yaml:"brand"`
	Category      Category      `json:"category" yaml:"category"`
	SubCategory   SubCategory   `json:"sub_category" yaml:"sub_category"`
	Price         int64         `json:"price" yaml:"price"`
	OriginalPrice *int64        `json:"original_price,omitempty" yaml:"original_price,omitempty"`
	Images        []string      `json:"images" yaml:"images"`
	Sizes         []Size        `json:"sizes" yaml:"sizes"`
	Materials     []Material    `json:"materials" yaml:"materials"`
	Condition     Condition     `json:"condition" yaml:"condition"`
	Status        Status        `json:"status" yaml:"status"`
	StockCount    int           `json:"stock_count" yaml:"stock_count"`
	Tags          []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	Gender        Gender        `json:"gender,omitempty" yaml:"gender,omitempty"`
	Occasion      Occasion      `json:"occasion,omitempty" yaml:"occasion,omitempty"`
	Season        Season        `json:"season,omitempty" yaml:"season,omitempty"`
	StyleCategory StyleCategory `json:"style_category,omitempty" yaml:"style_category,omitempty"`
	DateAdded     time.Time     `json:"date_added" yaml:"date_added"`
	CreatedAt     time.Time     `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time     `json:"updated_at" yaml:"-"`
	DeletedAt     *time.Time    `json:"deleted_at,omitempty" yaml:"-"`
}

// IsPurchasable reports whether the item can be bought right now.
// Status and stock are independent signals and both must agree.
func (i *Item) IsPurchasable() bool {
	return i.Status == StatusAvailable && i.StockCount > 0
}

// DiscountPercent returns the markdown from OriginalPrice as a percentage
// rounded to whole percent. ok is false when there is no usable original price.
// A negative result means the listing is priced above its original price.
func (i *Item) DiscountPercent() (pct decimal.Decimal, ok bool) {
	if i.OriginalPrice == nil || *i.OriginalPrice <= 0 {
		return decimal.Zero, false
	}
	orig := decimal.NewFromInt(*i.OriginalPrice)
	diff := orig.Sub(decimal.NewFromInt(i.Price))
	return diff.Div(orig).Mul(decimal.NewFromInt(100)).Round(0), true
}

// HasPriceAnomaly flags listings whose original price is below the asking price.
func (i *Item) HasPriceAnomaly() bool {
	return i.OriginalPrice != nil && *i.OriginalPrice < i.Price
}

// Validate performs domain validation on the item
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if i.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if i.OriginalPrice != nil && *i.OriginalPrice < 0 {
		return fmt.Errorf("original_price cannot be negative")
	}
	if i.StockCount < 0 {
		return fmt.Errorf("stock_count cannot be negative")
	}
	if !i.Category.Valid() {
		return fmt.Errorf("invalid category: %q", i.Category)
	}
	if i.SubCategory != "" {
		if !i.SubCategory.Valid() {
			return fmt.Errorf("invalid sub_category: %q", i.SubCategory)
		}
		if parent, _ := i.SubCategory.Parent(); parent != i.Category {
			return fmt.Errorf("sub_category %q does not belong to category %q", i.SubCategory, i.Category)
		}
	}
	for _, s := range i.Sizes {
		if !s.Valid() {
			return fmt.Errorf("invalid size: %q", s)
		}
	}
	for _, m := range i.Materials {
		if !m.Valid() {
			return fmt.Errorf("invalid material: %q", m)
		}
	}
	if i.Condition != "" && !i.Condition.Valid() {
		return fmt.Errorf("invalid condition: %q", i.Condition)
	}
	if i.Gender != "" && !slices.Contains(AllGenders, i.Gender) {
		return fmt.Errorf("invalid gender: %q", i.Gender)
	}
	if i.Occasion != "" && !slices.Contains(AllOccasions, i.Occasion) {
		return fmt.Errorf("invalid occasion: %q", i.Occasion)
	}
	if i.Season != "" && !slices.Contains(AllSeasons, i.Season) {
		return fmt.Errorf("invalid season: %q", i.Season)
	}
	if i.StyleCategory != "" && !slices.Contains(AllStyles, i.StyleCategory) {
		return fmt.Errorf("invalid style_category: %q", i.StyleCategory)
	}
	if i.Status == "" {
		i.Status = StatusAvailable
	}
	if !i.Status.Valid() {
		return fmt.Errorf("invalid status: %q", i.Status)
	}
	return nil
}

// PrepareForStorage prepares the item for database storage
func (i *Item) PrepareForStorage() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
	if i.DateAdded.IsZero() {
		i.DateAdded = now
	}

	i.Brand = strings.TrimSpace(i.Brand)
	i.Title = strings.TrimSpace(i.Title)
	if i.Images == nil {
		i.Images = []string{}
	}
}
