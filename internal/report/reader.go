// Package report adapts batch input and output formats: it reads the URL
// column out of an input CSV and writes the verdict report as CSV or XLSX.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoURLColumn is returned when the input header has no recognizable
// domain/url column.
var ErrNoURLColumn = errors.New(`input has no "Domain" or "URL" column`)

// urlColumnNames are accepted case-insensitively.
var urlColumnNames = map[string]struct{}{
	"domain": {},
	"url":    {},
}

// ReadTargets extracts raw URL strings from the input CSV. The first row is
// the header; the first column whose name matches Domain/URL (any casing)
// supplies the values. Empty cells are skipped.
func ReadTargets(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read input csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := -1
	for i, name := range records[0] {
		if _, ok := urlColumnNames[strings.ToLower(strings.TrimSpace(name))]; ok {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrNoURLColumn
	}

	var raws []string
	for _, row := range records[1:] {
		if col >= len(row) {
			continue
		}
		if cell := strings.TrimSpace(row[col]); cell != "" {
			raws = append(raws, cell)
		}
	}
	return raws, nil
}
