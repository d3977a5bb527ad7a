package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spigell/greenskills/internal/table"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name a workbook accepts.
const maxSheetName = 31

type Sheet struct {
	Name  string
	Table *table.Table
}

// WriteWorkbook saves every sheet into one XLSX file. Numeric cells are
// written as numbers.
func WriteWorkbook(path string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook %s: no sheets", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		name := sheetName(sheet.Name)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("naming sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("adding sheet %s: %w", name, err)
		}

		if err := writeSheet(f, name, sheet.Table); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating workbook directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, t *table.Table) error {
	for i, header := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, header); err != nil {
			return fmt.Errorf("writing header %s: %w", header, err)
		}
		if err := f.SetColWidth(name, columnName(i+1), columnName(i+1), 18); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, cellValue(value)); err != nil {
				return fmt.Errorf("writing %s!%s: %w", name, cell, err)
			}
		}
	}
	return nil
}

func cellValue(v string) any {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

func columnName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}

func sheetName(name string) string {
	if name == "" {
		name = "Sheet1"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}
