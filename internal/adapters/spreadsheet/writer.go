// internal/adapters/spreadsheet/writer.go
package spreadsheet

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/preloved-be/internal/core/domain"
)

const moneyFormat = "#,##0.00"

// Write renders items as a single-sheet workbook.
func Write(w io.Writer, items []*domain.Item) error {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, col := range Columns {
		cell := headerRow.AddCell()
		cell.Value = headerTitles[col]
		style := cell.GetStyle()
		style.Font.Bold = true
		style.Fill.PatternType = "solid"
		style.Fill.FgColor = "CCCCCC"
	}

	for _, item := range items {
		row := sheet.AddRow()
		for _, col := range Columns {
			writeCell(row.AddCell(), col, item)
		}
	}

	for i := range Columns {
		sheet.SetColWidth(i+1, i+1, 16)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Bytes is Write into memory.
func Bytes(items []*domain.Item) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCell(cell *xlsx.Cell, col string, item *domain.Item) {
	switch col {
	case "id":
		cell.SetString(item.ID)
	case "title":
		cell.SetString(item.Title)
	case "brand":
		cell.SetString(item.Brand)
	case "category":
		cell.SetString(string(item.Category))
	case "sub_category":
		cell.SetString(string(item.SubCategory))
	case "price":
		setMoney(cell, decimal.NewFromInt(item.Price))
	case "original_price":
		if item.OriginalPrice != nil {
			setMoney(cell, decimal.NewFromInt(*item.OriginalPrice))
		}
	case "discount_percent":
		if pct, ok := item.DiscountPercent(); ok {
			cell.SetInt64(pct.IntPart())
		}
	case "condition":
		cell.SetString(string(item.Condition))
	case "status":
		cell.SetString(string(item.Status))
	case "stock_count":
		cell.SetInt(item.StockCount)
	case "sizes":
		cell.SetString(joinList(item.Sizes))
	case "materials":
		cell.SetString(joinList(item.Materials))
	case "tags":
		cell.SetString(strings.Join(item.Tags, listSeparator))
	case "images":
		cell.SetString(strings.Join(item.Images, listSeparator))
	case "gender":
		cell.SetString(string(item.Gender))
	case "occasion":
		cell.SetString(string(item.Occasion))
	case "season":
		cell.SetString(string(item.Season))
	case "style_category":
		cell.SetString(string(item.StyleCategory))
	case "description":
		cell.SetString(item.Description)
	case "date_added":
		if !item.DateAdded.IsZero() {
			cell.SetString(item.DateAdded.UTC().Format(dateLayout))
		}
	}
}

func setMoney(cell *xlsx.Cell, d decimal.Decimal) {
	cell.SetFloatWithFormat(d.InexactFloat64(), moneyFormat)
}

func joinList[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, listSeparator)
}
