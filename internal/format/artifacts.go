package format

import (
	"fmt"
	"strconv"

	"resultsview/internal/artifact"
	"resultsview/internal/manifest"
)

// NoData is printed in place of an absent or empty table.
const NoData = "No data available"

// Table renders an artifact table with one column per header entry in
// header order. Missing cells render empty; numeric columns align right.
// Cells longer than maxCell runes are truncated when maxCell > 0.
func Table(t *artifact.Table, m Mode, maxCell int) string {
	if t.Len() == 0 || len(t.Columns) == 0 {
		return NoData
	}
	tb := NewTable(m)
	tb.Header(t.Columns...)
	for _, row := range t.Rows {
		vals := make([]any, len(t.Columns))
		for i, c := range t.Columns {
			v := row[c]
			if maxCell > 0 {
				v = Truncate(v, maxCell)
			}
			vals[i] = v
		}
		tb.Row(vals...)
	}
	var cfgs []ColumnConfig
	for i, c := range t.Columns {
		if numeric(t, c) {
			cfgs = append(cfgs, ColumnConfig{Number: i + 1, Align: AlignRight})
		}
	}
	if len(cfgs) > 0 {
		tb.Columns(cfgs...)
	}
	return tb.String()
}

// numeric reports whether every non-empty cell of column c parses as a
// number and at least one does.
func numeric(t *artifact.Table, c string) bool {
	seen := false
	for _, row := range t.Rows {
		v := row[c]
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// Checker renders file checker results, one row per expected file, with a
// present/total footer.
func Checker(cats []manifest.CategoryStatus, m Mode) string {
	tb := NewTable(m)
	tb.Header("Category", "File", "Status")
	present, total := 0, 0
	for _, c := range cats {
		for _, f := range c.Files {
			tb.Row(c.Name, f.Path, statusLabel(f.Present))
		}
		p, n := c.Counts()
		present += p
		total += n
	}
	tb.Footer("", "Present", fmt.Sprintf("%d/%d", present, total))
	return tb.String()
}

func statusLabel(present bool) string {
	if present {
		return BoolMark(true) + " Present"
	}
	return BoolMark(false) + " Missing"
}

// Status renders the active source of a session.
func Status(st artifact.Status, m Mode) string {
	tb := NewTable(m)
	tb.Header("Field", "Value")
	tb.Row("source", st.Kind)
	tb.Row("base", st.Base)
	tb.Row("discovered", BoolMark(st.Discovered))
	if st.Kind == artifact.KindUpload {
		tb.Row("files", st.Files)
		tb.Row("fingerprint", st.Fingerprint)
	}
	tb.Row("status", st.Message())
	return tb.String()
}
