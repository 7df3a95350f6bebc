package artifact

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Row is one record of a table keyed by column name.
type Row map[string]string

// Table is a parsed CSV artifact.
type Table struct {
	Columns []string // header order
	Rows    []Row
}

// Len is the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// First returns the first row, or nil for an empty table.
func (t *Table) First() Row {
	if t.Len() == 0 {
		return nil
	}
	return t.Rows[0]
}

// Cell returns the value of col in row i, or "" when either is missing.
func (t *Table) Cell(i int, col string) string {
	if i < 0 || i >= t.Len() {
		return ""
	}
	return t.Rows[i][col]
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseTable reads CSV with a header row. Blank lines are skipped. A record
// shorter than the header leaves the trailing columns unset; cells beyond
// the header are dropped.
func ParseTable(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &Table{Columns: uniqueColumns(header)}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// uniqueColumns renames repeated header names to name_1, name_2, ...
func uniqueColumns(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := h
		for n := 1; used[name]; n++ {
			name = h + "_" + strconv.Itoa(n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// ParseJSON decodes a single JSON value. Numbers are kept as json.Number
// so that they print back unchanged.
func ParseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}
