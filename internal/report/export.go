package report

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"billing/internal/storage"
)

// TableWriter replaces the content of one spreadsheet tab.
type TableWriter interface {
	WriteTable(ctx context.Context, sheetName string, header []string, rows [][]interface{}) error
}

// ExportSheets writes every table to its own tab.
func ExportSheets(ctx context.Context, w TableWriter, places int32, tables ...Table) error {
	for _, t := range tables {
		if err := w.WriteTable(ctx, t.Name, t.Header, t.values(places)); err != nil {
			return fmt.Errorf("ExportSheets: %s: %w", t.Name, err)
		}
	}
	return nil
}

// WriteXLSX writes the tables as sheets of one workbook at path.
func WriteXLSX(path string, places int32, tables ...Table) error {
	const op = "WriteXLSX"

	data, err := buildWorkbook(places, tables)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := storage.WriteFile(path, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func buildWorkbook(places int32, tables []Table) ([]byte, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables to write")
	}

	file := excelize.NewFile()
	defer file.Close()

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for i, t := range tables {
		name := sheetName(t.Name)
		if i == 0 {
			if err := file.SetSheetName("Sheet1", name); err != nil {
				return nil, err
			}
		} else if _, err := file.NewSheet(name); err != nil {
			return nil, err
		}
		if err := writeSheet(file, name, t, places, headerStyle); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheet(file *excelize.File, sheet string, t Table, places int32, headerStyle int) error {
	for col, header := range t.Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if d, ok := value.(decimal.Decimal); ok {
				err = file.SetCellFloat(sheet, cell, d.InexactFloat64(), int(places), 64)
			} else {
				err = file.SetCellValue(sheet, cell, value)
			}
			if err != nil {
				return err
			}
		}
	}

	if len(t.Header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err != nil {
			return err
		}
		if err := file.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
		lastCol, _ := excelize.ColumnNumberToName(len(t.Header))
		_ = file.SetColWidth(sheet, "A", lastCol, 16)
	}
	return nil
}

// sheetName trims names to the 31 characters a sheet title may have.
func sheetName(name string) string {
	runes := []rune(name)
	if len(runes) > 31 {
		return string(runes[:31])
	}
	return name
}
