package artifact

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTable(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *Table
	}{
		{
			name: "header and two rows",
			in:   "a,b\n1,2\n3,4\n",
			want: &Table{Columns: []string{"a", "b"}, Rows: []Row{{"a": "1", "b": "2"}, {"a": "3", "b": "4"}}},
		},
		{
			name: "blank lines skipped",
			in:   "a,b\n\n1,2\n\n\n3,4",
			want: &Table{Columns: []string{"a", "b"}, Rows: []Row{{"a": "1", "b": "2"}, {"a": "3", "b": "4"}}},
		},
		{
			name: "bom and crlf",
			in:   "\xEF\xBB\xBFn_patients,n_pos\r\n120,45\r\n",
			want: &Table{Columns: []string{"n_patients", "n_pos"}, Rows: []Row{{"n_patients": "120", "n_pos": "45"}}},
		},
		{
			name: "short and long records",
			in:   "x,y\n1\n2,3,4\n",
			want: &Table{Columns: []string{"x", "y"}, Rows: []Row{{"x": "1"}, {"x": "2", "y": "3"}}},
		},
		{
			name: "duplicate header names",
			in:   "m,m,m\n1,2,3\n",
			want: &Table{Columns: []string{"m", "m_1", "m_2"}, Rows: []Row{{"m": "1", "m_1": "2", "m_2": "3"}}},
		},
		{
			name: "quoted cells",
			in:   "model,note\nRF,\"a, b\"\n",
			want: &Table{Columns: []string{"model", "note"}, Rows: []Row{{"model": "RF", "note": "a, b"}}},
		},
		{
			name: "empty",
			in:   "",
			want: &Table{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTable([]byte(tt.in))
			if err != nil {
				t.Fatalf("ParseTable: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseTable mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTable_Malformed(t *testing.T) {
	if _, err := ParseTable([]byte("a,b\n1,\"2\n")); err == nil {
		t.Fatal("expected error for unterminated quote")
	}
}

func TestTable_Accessors(t *testing.T) {
	var empty *Table
	if empty.Len() != 0 || empty.First() != nil || empty.Cell(0, "a") != "" {
		t.Error("nil table accessors should be zero-valued")
	}
	tb := &Table{Columns: []string{"a"}, Rows: []Row{{"a": "1"}}}
	if got := tb.Cell(0, "a"); got != "1" {
		t.Errorf("Cell(0, a) = %q, want 1", got)
	}
	if got := tb.Cell(0, "missing"); got != "" {
		t.Errorf("Cell(0, missing) = %q, want empty", got)
	}
}

func TestParseJSON(t *testing.T) {
	v, err := ParseJSON([]byte(`{"timestamp":"2025-03-01T10:22:00","seed":42,"models":["RF","XGB"]}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	want := map[string]any{
		"timestamp": "2025-03-01T10:22:00",
		"seed":      json.Number("42"),
		"models":    []any{"RF", "XGB"},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("ParseJSON mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	for _, in := range []string{`{"a":`, `{"a":1} trailing`, ``} {
		if _, err := ParseJSON([]byte(in)); err == nil {
			t.Errorf("ParseJSON(%q): expected error", in)
		}
	}
}
