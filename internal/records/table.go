package records

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is an ordered CSV record table. Cells are strings; an empty cell is
// an absent value.
type Table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// New returns an empty table with the given header.
func New(header ...string) *Table {
	t := &Table{index: make(map[string]int, len(header))}
	for _, name := range header {
		t.addColumn(name)
	}
	return t
}

// FromRows builds a table from a header and row cells. Short rows are
// padded; rows longer than the header are rejected.
func FromRows(header []string, rows [][]string) (*Table, error) {
	t := New(header...)
	if len(t.header) != len(header) {
		return nil, errors.New("duplicate column in header")
	}
	t.rows = make([][]string, 0, len(rows))
	for i, row := range rows {
		if len(row) > len(t.header) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), len(t.header))
		}
		cells := make([]string, len(t.header))
		copy(cells, row)
		t.rows = append(t.rows, cells)
	}
	return t, nil
}

// Read parses CSV with a header row.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(all) == 0 {
		return nil, errors.New("csv has no header row")
	}
	header := make([]string, len(all[0]))
	for i, name := range all[0] {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[i] = strings.TrimSpace(name)
	}
	return FromRows(header, all[1:])
}

// Load reads a CSV file.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Write encodes the table as CSV with a header row.
func (t *Table) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.rows); err != nil {
		return err
	}
	return writer.Error()
}

// Encode returns the CSV encoding of the table.
func (t *Table) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Header returns a copy of the column names.
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// EnsureColumns appends any missing columns, leaving existing ones in place.
func (t *Table) EnsureColumns(names ...string) {
	for _, name := range names {
		t.addColumn(name)
	}
}

// Get returns the trimmed cell, empty when the row or column is unknown.
func (t *Table) Get(row int, column string) string {
	idx, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return ""
	}
	return strings.TrimSpace(t.rows[row][idx])
}

// Set writes a cell, adding the column when needed.
func (t *Table) Set(row int, column, value string) {
	if row < 0 || row >= len(t.rows) {
		return
	}
	t.addColumn(column)
	t.rows[row][t.index[column]] = value
}

// Row returns a copy of the row's cells in header order.
func (t *Table) Row(row int) []string {
	if row < 0 || row >= len(t.rows) {
		return nil
	}
	return append([]string(nil), t.rows[row]...)
}

// Append adds a row given as column/value pairs; unknown columns are added.
func (t *Table) Append(values map[string]string) int {
	for _, name := range sortedKeys(values) {
		t.addColumn(name)
	}
	cells := make([]string, len(t.header))
	for name, value := range values {
		cells[t.index[name]] = value
	}
	t.rows = append(t.rows, cells)
	return len(t.rows) - 1
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New(t.header...)
	out.rows = make([][]string, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = append([]string(nil), row...)
	}
	return out
}

func (t *Table) addColumn(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = len(t.header)
	t.header = append(t.header, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
}
