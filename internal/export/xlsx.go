// Package export renders built report tables as XLSX workbooks for the
// accountants who still live in spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/agrofin/internal/report"
)

// Sheet pairs a worksheet name with the table it renders.
type Sheet struct {
	Name  string
	Table *report.Table
}

// Write renders one worksheet per sheet: a header row with the month
// columns, one row per table line, a TOTAL column and, when the table has a
// revenue base row, a % RECEITA column.
func Write(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("export: no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: creating header style: %w", err)
	}

	for i, sheet := range sheets {
		if err := writeSheet(f, sheet, i == 0, headerStyle); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet, first bool, headerStyle int) error {
	name := sheet.Name
	if first {
		// Reuse the default sheet instead of leaving an empty Sheet1 behind.
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("export: renaming default sheet: %w", err)
		}
	} else if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("export: creating sheet %q: %w", name, err)
	}

	t := sheet.Table
	withPercent := t.BaseRow != ""

	header := append([]string{"LINHA"}, t.Months...)
	header = append(header, "TOTAL")
	if withPercent {
		header = append(header, "% RECEITA")
	}
	for col, v := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("export: header cell: %w", err)
		}
		if err := f.SetCellValue(name, cell, v); err != nil {
			return fmt.Errorf("export: writing header: %w", err)
		}
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(name, "A1", lastCol, headerStyle); err != nil {
		return fmt.Errorf("export: styling header: %w", err)
	}

	for r, row := range t.Rows {
		values := []interface{}{row}
		for _, m := range t.Months {
			values = append(values, t.Value(row, m))
		}
		values = append(values, t.Total(row))
		if withPercent {
			values = append(values, t.PercentOfRevenue(row))
		}

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return fmt.Errorf("export: data cell: %w", err)
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				return fmt.Errorf("export: writing row %q: %w", row, err)
			}
		}
	}

	return nil
}
