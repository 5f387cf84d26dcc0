// Package dataset provides tabular file reading, row formatting and the
// append-only output store used by the synthesis pipeline.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Table holds parsed tabular data. Row 0 is conventionally the header.
type Table [][]string

// Read parses the delimiter-separated file at path. Rows keep whatever
// field count they carry; ragged rows are not an error here.
func Read(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return Table(rows), nil
}

// Header returns the first row, or nil for an empty table.
func (t Table) Header() []string {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Serialize renders the table as delimiter-separated text, one row per
// line. The output uses the same quoting rules as FormatRow, so a row
// rendered either way produces identical bytes.
func (t Table) Serialize() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	for _, row := range t {
		w.Write(row)
	}
	w.Flush()
	return b.String()
}

// FormatRow renders a single row without a trailing newline.
func FormatRow(fields []string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Write(fields)
	w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}
