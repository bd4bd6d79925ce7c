package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"linkaudit/internal/audit"
)

var header = []string{"Domain", "Status", "Timestamp", "Notes"}

// Write persists the report to path, choosing the format by extension:
// .xlsx gets a spreadsheet, everything else CSV.
func Write(path string, rep audit.Report) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return writeXLSX(path, rep)
	}
	return writeCSV(path, rep)
}

func writeCSV(path string, rep audit.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close() //nolint:errcheck // double close on error path is fine

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	timestamp := rep.GeneratedAt.Format(time.RFC3339)
	for _, row := range rep.Rows {
		record := []string{row.Target.URL, string(row.Status), timestamp, row.Notes}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return f.Close()
}
