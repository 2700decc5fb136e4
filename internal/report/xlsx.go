package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/skrubbify/internal/receipt"
)

// SheetName is the worksheet the XLSX report is written to.
const SheetName = "Skrubbenpriser"

// XLSXWriter renders the report as an Excel workbook.
type XLSXWriter struct{}

// Write implements Writer.
func (x *XLSXWriter) Write(w io.Writer, items []receipt.PricedItem) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &[]interface{}{NameHeader, PriceHeader}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &[]interface{}{item.Name, item.UnitPrice}); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 30); err != nil {
		return err
	}

	return f.Write(w)
}
