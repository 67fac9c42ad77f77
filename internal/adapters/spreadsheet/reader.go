// internal/adapters/spreadsheet/reader.go
package spreadsheet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

const dateLayout = time.RFC3339

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "02/01/2006"}

// ErrNoHeader is returned when the first row lacks the required columns.
var ErrNoHeader = errors.New("header row must name at least title, category and price")

// RowError is a data row that could not be turned into a valid item.
// Row is 1-based and counts the header.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// ReadFile parses the workbook at path.
func ReadFile(path string) ([]*domain.Item, []RowError, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return read(file)
}

// Read parses a workbook held in memory.
func Read(b []byte) ([]*domain.Item, []RowError, error) {
	file, err := xlsx.OpenBinary(b)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return read(file)
}

// read returns every row that validates, plus one RowError per row that
// does not. Blank rows are skipped.
func read(file *xlsx.File) ([]*domain.Item, []RowError, error) {
	if len(file.Sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheets")
	}
	sheet := file.Sheets[0]

	var (
		items   []*domain.Item
		rowErrs []RowError
		index   map[string]int
		rowNum  int
	)

	err := sheet.ForEachRow(func(r *xlsx.Row) error {
		rowNum++
		cells := rowValues(r, sheet.MaxCol)

		if index == nil {
			index = headerIndex(cells)
			for _, required := range []string{"title", "category", "price"} {
				if _, ok := index[required]; !ok {
					return ErrNoHeader
				}
			}
			return nil
		}

		if blank(cells) {
			return nil
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(cells) {
				return ""
			}
			return cells[i]
		}

		item, err := parseItem(get)
		if err == nil {
			err = item.Validate()
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Err: err})
			return nil
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if index == nil {
		return nil, nil, ErrNoHeader
	}

	return items, rowErrs, nil
}

func rowValues(r *xlsx.Row, width int) []string {
	out := make([]string, width)
	for i := 0; i < width; i++ {
		if c := r.GetCell(i); c != nil {
			out[i] = strings.TrimSpace(c.String())
		}
	}
	return out
}

func headerIndex(cells []string) map[string]int {
	known := make(map[string]string, len(Columns))
	for _, col := range Columns {
		known[columnKey(col)] = col
	}

	index := make(map[string]int)
	for i, h := range cells {
		if col, ok := known[columnKey(h)]; ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	return index
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func parseItem(get func(string) string) (*domain.Item, error) {
	price, err := parseMoney(get("price"))
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}

	item := &domain.Item{
		ID:            get("id"),
		Title:         get("title"),
		Brand:         get("brand"),
		Category:      domain.Canonical(get("category"), domain.AllCategories),
		SubCategory:   domain.Canonical(get("sub_category"), domain.AllSubCategories),
		Price:         price,
		Condition:     domain.Canonical(get("condition"), domain.AllConditions),
		Status:        domain.Canonical(get("status"), domain.AllStatuses),
		StockCount:    1,
		Sizes:         domain.CanonicalAll(splitList(get("sizes")), domain.AllSizes),
		Materials:     domain.CanonicalAll(splitList(get("materials")), domain.AllMaterials),
		Tags:          splitList(get("tags")),
		Images:        splitList(get("images")),
		Gender:        domain.Canonical(get("gender"), domain.AllGenders),
		Occasion:      domain.Canonical(get("occasion"), domain.AllOccasions),
		Season:        domain.Canonical(get("season"), domain.AllSeasons),
		StyleCategory: domain.Canonical(get("style_category"), domain.AllStyles),
		Description:   get("description"),
	}

	if s := get("original_price"); s != "" {
		orig, err := parseMoney(s)
		if err != nil {
			return nil, fmt.Errorf("original_price: %w", err)
		}
		item.OriginalPrice = &orig
	}

	if s := get("stock_count"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("stock_count: %w", err)
		}
		item.StockCount = int(d.IntPart())
	}

	if s := get("date_added"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return nil, fmt.Errorf("date_added: %w", err)
		}
		item.DateAdded = t
	}

	return item, nil
}

// parseMoney accepts "45", "45.00", "$1,200.50" and rounds to whole units.
func parseMoney(s string) (int64, error) {
	s = strings.TrimSpace(strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s))
	if s == "" {
		return 0, errors.New("missing value")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return d.Round(0).IntPart(), nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
