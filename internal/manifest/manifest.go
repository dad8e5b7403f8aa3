// Package manifest reads and writes the tabular audio dataset listing.
package manifest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Well-known column names.
const (
	ColFilename      = "filename"
	ColGeneratedText = "generated_text"
	ColDuration      = "duration"
)

// Table is an ordered CSV table. Rows are keyed by column name; Columns
// fixes the output order.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Load reads a manifest CSV. The file must exist, parse cleanly and carry a
// filename column; anything else is a fatal input error for the callers.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("manifest %s has no header row", path)
	}

	header := records[0]
	hasFilename := false
	for _, col := range header {
		if col == ColFilename {
			hasFilename = true
			break
		}
	}
	if !hasFilename {
		return nil, fmt.Errorf("manifest %s missing %q column", path, ColFilename)
	}

	table := &Table{Columns: append([]string(nil), header...)}
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// EnsureColumn appends a column (empty in every row) when absent.
func (t *Table) EnsureColumn(name string) {
	for _, col := range t.Columns {
		if col == name {
			return
		}
	}
	t.Columns = append(t.Columns, name)
}

// Write saves the table to a new file. Callers never point this at the
// source manifest; the batch driver always derives a fresh output path.
func (t *Table) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	return f.Close()
}

// TranscribedPath derives the sibling output path for a manifest:
// dir/name.csv -> dir/name_transcribed.csv.
func TranscribedPath(manifestPath string) string {
	dir := filepath.Dir(manifestPath)
	base := filepath.Base(manifestPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+"_transcribed"+ext)
}
