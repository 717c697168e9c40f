package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// headerMap maps lowercased header names to their column index. Duplicate
// headers keep the first occurrence.
type headerMap map[string]int

func newHeaderMap(header []string) headerMap {
	m := make(headerMap, len(header))
	for i, name := range header {
		cleaned := strings.ToLower(strings.TrimSpace(name))
		if cleaned == "" {
			continue
		}
		if _, exists := m[cleaned]; !exists {
			m[cleaned] = i
		}
	}
	return m
}

// get returns the cell for a header name, "" when the column is missing or
// the row is short.
func (m headerMap) get(row []string, name string) string {
	idx, ok := m[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func (m headerMap) has(names ...string) error {
	for _, name := range names {
		if _, ok := m[name]; !ok {
			return fmt.Errorf("missing required column %q", name)
		}
	}
	return nil
}

// readCSV opens a CSV file and returns its header map and data rows. Rows
// may be ragged; the reader does not enforce a fixed field count because the
// sources are externally owned.
func readCSV(path string) (headerMap, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: file is empty", path)
	}

	return newHeaderMap(records[0]), records[1:], nil
}
