package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pitchdna/internal/records"
)

// WriteCSV writes header and rows as CSV at path and returns path.
func WriteCSV(t testing.TB, path string, header []string, rows ...[]string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	table := NewTable(t, header, rows...)
	data, err := table.Encode()
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteLines writes raw lines to path, newline-terminated.
func WriteLines(t testing.TB, path string, lines ...string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// NewTable builds a record table or fails the test.
func NewTable(t testing.TB, header []string, rows ...[]string) *records.Table {
	t.Helper()

	table, err := records.FromRows(header, rows)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return table
}

// MustLoadTable reads a CSV table from path or fails the test.
func MustLoadTable(t testing.TB, path string) *records.Table {
	t.Helper()

	table, err := records.Load(path)
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	return table
}
