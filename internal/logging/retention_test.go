package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "pitchdna-old.log")
	current := filepath.Join(dir, "pitchdna-current.log")
	keep := filepath.Join(dir, "pitchdna-excluded.log")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, current, keep, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -30)
	for _, p := range []string{old, keep, other} {
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := CleanupOldLogs(NewNop(), 7, RetentionTarget{Dir: dir, Pattern: runLogPattern, Exclude: []string{keep}})
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed", old)
	}
	for _, p := range []string{current, keep, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "pitchdna-a.log")
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().AddDate(-1, 0, 0)
	_ = os.Chtimes(p, stale, stale)
	if removed := CleanupOldLogs(nil, 0, RetentionTarget{Dir: dir, Pattern: runLogPattern}); removed != 0 {
		t.Fatalf("removed = %d with retention disabled", removed)
	}
}
