package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"linkaudit/internal/audit"
)

const sheetName = "Results"

func writeXLSX(path string, rep audit.Report) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("set header: %w", err)
		}
	}

	timestamp := rep.GeneratedAt.Format(time.RFC3339)
	for i, row := range rep.Rows {
		values := []any{row.Target.URL, string(row.Status), timestamp, row.Notes}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("set cell: %w", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}
