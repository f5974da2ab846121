// Package tabular holds the named-column table exchanged with the bench and
// the codecs that move it to and from files.
package tabular

import (
	"path"
	"strings"

	"clonetrack/pkg/domain"
)

// Row maps column names to cell values. Missing columns read as absent.
type Row map[string]domain.Value

// Get returns the cell under column.
func (r Row) Get(column string) domain.Value {
	return r[column]
}

// Table is an ordered set of named columns with rows of scalar cells.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// New creates an empty table with the given column order.
func New(columns ...string) *Table {
	t := &Table{index: make(map[string]int)}
	for _, c := range columns {
		t.AddColumn(c)
	}
	return t
}

// AddColumn appends a column unless present and returns its position.
func (t *Table) AddColumn(name string) int {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	t.columns = append(t.columns, name)
	t.index[name] = len(t.columns) - 1
	return len(t.columns) - 1
}

// HasColumn reports whether the column is declared.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Columns returns column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Append adds a row; cells under undeclared columns declare them.
func (t *Table) Append(row Row) {
	stored := make(Row, len(row))
	for k, v := range row {
		t.AddColumn(k)
		stored[k] = v
	}
	t.rows = append(t.rows, stored)
}

// AppendValues adds a row aligned positionally with the declared columns.
func (t *Table) AppendValues(values ...domain.Value) {
	row := make(Row, len(values))
	for i, v := range values {
		if i >= len(t.columns) {
			break
		}
		row[t.columns[i]] = v
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns row i.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Rows returns all rows in order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Records renders the table as header plus text rows.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Columns())
	for _, row := range t.rows {
		rec := make([]string, len(t.columns))
		for i, c := range t.columns {
			rec[i] = row.Get(c).String()
		}
		out = append(out, rec)
	}
	return out
}

// FromRecords builds a table from a header row and text rows, inferring
// each cell's scalar kind. Rows with only empty cells are dropped.
func FromRecords(records [][]string) *Table {
	t := New()
	if len(records) == 0 {
		return t
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[i] = h
		if h != "" {
			t.AddColumn(h)
		}
	}
	for _, rec := range records[1:] {
		row := make(Row, len(header))
		empty := true
		for i, raw := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			v := domain.ParseValue(raw)
			if !v.IsAbsent() {
				empty = false
			}
			row[header[i]] = v
		}
		if empty {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// Format names a file codec.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Extension returns the file extension including the dot.
func (f Format) Extension() string { return "." + string(f) }

// FormatFromName infers the format from a file name extension.
func FormatFromName(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return FormatCSV, true
	case ".xlsx":
		return FormatXLSX, true
	default:
		return "", false
	}
}
