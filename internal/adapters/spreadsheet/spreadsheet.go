// internal/adapters/spreadsheet/spreadsheet.go

// Package spreadsheet reads and writes catalog items as xlsx workbooks.
// The first sheet holds one item per row under a header row naming the
// columns; column order is free on import.
package spreadsheet

import (
	"strings"
)

// SheetName of exported workbooks
const SheetName = "Catalog"

// Columns in export order. Import matches headers against these names,
// ignoring case, spaces and underscores.
var Columns = []string{
	"id",
	"title",
	"brand",
	"category",
	"sub_category",
	"price",
	"original_price",
	"discount_percent",
	"condition",
	"status",
	"stock_count",
	"sizes",
	"materials",
	"tags",
	"images",
	"gender",
	"occasion",
	"season",
	"style_category",
	"description",
	"date_added",
}

// listSeparator joins multi-valued cells.
const listSeparator = ";"

var headerTitles = map[string]string{
	"id":               "ID",
	"title":            "Title",
	"brand":            "Brand",
	"category":         "Category",
	"sub_category":     "Sub Category",
	"price":            "Price",
	"original_price":   "Original Price",
	"discount_percent": "Discount %",
	"condition":        "Condition",
	"status":           "Status",
	"stock_count":      "Stock Count",
	"sizes":            "Sizes",
	"materials":        "Materials",
	"tags":             "Tags",
	"images":           "Images",
	"gender":           "Gender",
	"occasion":         "Occasion",
	"season":           "Season",
	"style_category":   "Style Category",
	"description":      "Description",
	"date_added":       "Date Added",
}

// columnKey folds a header so "Sub Category", "sub_category" and
// "SubCategory" name the same column.
func columnKey(header string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "", "%", "percent")
	return strings.ToLower(r.Replace(strings.TrimSpace(header)))
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' || r == '\n' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
