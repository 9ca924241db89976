// Package table provides a minimal in-memory CSV table with the column
// fallback and coercion helpers the pipeline stages share.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Table shape errors.
var (
	ErrEmptyFile      = errors.New("file has no header row")
	ErrSchemaMismatch = errors.New("tables have different schemas")
	ErrNoColumns      = errors.New("table has no columns")
)

// Table is a header plus rows, all values kept as strings. Stages never
// mutate a table in place; each stage derives a new one.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New creates an empty table with the given columns.
func New(columns []string) *Table {
	t := &Table{Columns: columns}
	t.buildIndex()

	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// ReadCSV loads a CSV file. Short rows are padded so every row has one
// value per column; long rows are an error from the csv reader.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}

	t := New(records[0])
	for _, row := range records[1:] {
		for len(row) < len(t.Columns) {
			row = append(row, "")
		}

		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// WriteCSV writes the table to path. Creating parent directories is the
// caller's responsibility.
func (t *Table) WriteCSV(path string) error {
	if len(t.Columns) == 0 {
		return ErrNoColumns
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()

	return w.Error()
}

// ColumnIndex returns the index of a column, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}

	return -1
}

// FirstColumn returns the first candidate column that exists, evaluated
// in order. Fallback column names are data, not scattered conditionals.
func (t *Table) FirstColumn(candidates ...string) (string, int, bool) {
	for _, c := range candidates {
		if i := t.ColumnIndex(c); i >= 0 {
			return c, i, true
		}
	}

	return "", -1, false
}

// Value returns the cell at (row, column index).
func (t *Table) Value(row, col int) string {
	return t.Rows[row][col]
}

// Select derives a table keeping only the named columns that are present,
// preserving the requested order. Missing names are reported so callers
// can warn; at least one present column is required.
func (t *Table) Select(columns []string) (*Table, []string, error) {
	var (
		kept    []string
		keptIdx []int
		missing []string
	)

	for _, c := range columns {
		if i := t.ColumnIndex(c); i >= 0 {
			kept = append(kept, c)
			keptIdx = append(keptIdx, i)
		} else {
			missing = append(missing, c)
		}
	}

	if len(kept) == 0 {
		return nil, missing, ErrNoColumns
	}

	out := New(kept)
	for _, row := range t.Rows {
		newRow := make([]string, len(keptIdx))
		for j, i := range keptIdx {
			newRow[j] = row[i]
		}

		out.Rows = append(out.Rows, newRow)
	}

	return out, missing, nil
}

// Filter derives a table with the rows for which keep returns true.
// Kept rows are copied, so edits to the derived table never reach back
// into the source.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := New(t.Columns)
	for _, row := range t.Rows {
		if keep(row) {
			copied := make([]string, len(row))
			copy(copied, row)

			out.Rows = append(out.Rows, copied)
		}
	}

	return out
}

// Concat concatenates tables row-wise. Every table must share the first
// table's exact column list; a mismatch is an error for the whole call.
func Concat(tables []*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, ErrNoColumns
	}

	out := New(tables[0].Columns)
	for _, tbl := range tables {
		if len(tbl.Columns) != len(out.Columns) {
			return nil, ErrSchemaMismatch
		}

		for i, c := range tbl.Columns {
			if out.Columns[i] != c {
				return nil, ErrSchemaMismatch
			}
		}

		out.Rows = append(out.Rows, tbl.Rows...)
	}

	return out, nil
}

// ParseAmount coerces a monetary cell to a float. Currency symbols and
// thousands separators are tolerated. The false return is the NaN case:
// rows that fail coercion compare false against any threshold.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// dateLayouts are tried in order when parsing performance end dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// ParseDate parses a date cell. Rows with unparseable dates are treated
// as not-currently-live by callers, never as errors.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
