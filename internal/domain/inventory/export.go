package inventory

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Inventory"

var exportHeaders = []string{"Variant ID", "Product", "SKU", "Options", "Price", "Stock", "Low stock at", "Status", "Active", "Updated"}

// WriteWorkbook renders items as an XLSX workbook with one row per variant.
func WriteWorkbook(w io.Writer, items []*Item) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	alertStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "C00000"},
	})
	if err != nil {
		return fmt.Errorf("alert style: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
		_ = f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for i, it := range items {
		row := i + 2
		values := []any{
			it.VariantID,
			it.ProductName,
			it.SKU,
			it.Label,
			float64(it.PriceCents) / 100,
			it.Stock,
			it.LowStockThreshold,
			it.Status(),
			it.IsActive,
			it.UpdatedAt.UTC().Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
		if it.Status() != "in_stock" {
			cell, _ := excelize.CoordinatesToCellName(8, row)
			_ = f.SetCellStyle(exportSheet, cell, cell, alertStyle)
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 12)
	_ = f.SetColWidth(exportSheet, "B", "B", 36)
	_ = f.SetColWidth(exportSheet, "C", "D", 24)
	_ = f.SetColWidth(exportSheet, "E", "J", 14)
	_ = f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	return f.Write(w)
}
