package identity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"pitchdna/internal/names"
)

// Entry is one canonical (name, ID) pair from the reference table.
type Entry struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Table is an immutable reference table indexed by normalized name.
type Table struct {
	entries    []Entry
	normalized []string
	index      map[string]int
}

// NewTable builds a table from entries in order. Later entries whose
// normalized name repeats an earlier one are dropped.
func NewTable(entries []Entry) *Table {
	t := &Table{
		entries:    make([]Entry, 0, len(entries)),
		normalized: make([]string, 0, len(entries)),
		index:      make(map[string]int, len(entries)),
	}
	for _, entry := range entries {
		t.add(entry)
	}
	return t
}

func (t *Table) add(entry Entry) bool {
	key := names.Canonical(entry.Name)
	if key == "" {
		return false
	}
	if _, exists := t.index[key]; exists {
		return false
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, entry)
	t.normalized = append(t.normalized, key)
	return true
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the entries in table order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup returns the entry whose normalized name equals the normalized form
// of name.
func (t *Table) Lookup(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	idx, ok := t.index[names.Canonical(name)]
	if !ok {
		return Entry{}, false
	}
	return t.entries[idx], true
}

// Columns names the header cells LoadCSV reads. A file provides either
// Name and ID, or First, Last and RegisterID.
type Columns struct {
	Name       string
	ID         string
	First      string
	Last       string
	RegisterID string
}

// DefaultColumns matches the two-column mapping files and the Chadwick
// register layout.
func DefaultColumns() Columns {
	return Columns{
		Name:       "name",
		ID:         "player_id",
		First:      "name_first",
		Last:       "name_last",
		RegisterID: "key_mlbam",
	}
}

// LoadStats reports what LoadCSV kept and skipped.
type LoadStats struct {
	Rows       int
	Loaded     int
	Skipped    int
	Duplicates int
}

// LoadCSV reads a reference table. Rows with a blank name or an unparseable
// ID are skipped and counted.
func LoadCSV(r io.Reader, cols Columns) (*Table, LoadStats, error) {
	var stats LoadStats
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, errors.New("reference table is empty")
		}
		return nil, stats, fmt.Errorf("read reference header: %w", err)
	}
	positions := make(map[string]int, len(header))
	for i, cell := range header {
		cell = strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
		if _, seen := positions[cell]; !seen {
			positions[cell] = i
		}
	}

	var nameOf func([]string) string
	idCol := -1
	if nameCol, ok := positions[cols.Name]; ok {
		if id, ok := positions[cols.ID]; ok {
			idCol = id
			nameOf = func(row []string) string { return cell(row, nameCol) }
		}
	}
	if nameOf == nil {
		firstCol, okFirst := positions[cols.First]
		lastCol, okLast := positions[cols.Last]
		id, okID := positions[cols.RegisterID]
		if !okFirst || !okLast || !okID {
			return nil, stats, fmt.Errorf("reference table needs columns %q/%q or %q/%q/%q",
				cols.Name, cols.ID, cols.First, cols.Last, cols.RegisterID)
		}
		idCol = id
		nameOf = func(row []string) string {
			return strings.TrimSpace(cell(row, firstCol) + " " + cell(row, lastCol))
		}
	}

	table := NewTable(nil)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read reference row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++
		name := nameOf(row)
		id, ok := ParseID(cell(row, idCol))
		if name == "" || !ok {
			stats.Skipped++
			continue
		}
		if !table.add(Entry{Name: name, ID: id}) {
			stats.Duplicates++
			continue
		}
		stats.Loaded++
	}
	return table, stats, nil
}

// ParseID accepts integer IDs, including the "123.0" form spreadsheet tools
// write for numeric columns.
func ParseID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id, id > 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f <= 0 || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
