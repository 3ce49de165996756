package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pitchdna/internal/services"
)

func TestNewJSONWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("row resolved", String(FieldComponent, "identity"), Duration("took", 1500*time.Millisecond))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["level"] != "info" {
		t.Fatalf("level = %v, want info", rec["level"])
	}
	if _, ok := rec["ts"]; !ok {
		t.Fatalf("expected ts key in %v", rec)
	}
	if rec["msg"] != "row resolved" || rec["component"] != "identity" {
		t.Fatalf("unexpected record %v", rec)
	}
	if rec["took"] != "1.5s" {
		t.Fatalf("took = %v, want 1.5s", rec["took"])
	}
}

func TestNewConsoleLineLayout(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.With(String(FieldComponent, "batch")).Info("row done",
		String(FieldStage, "locate"),
		RecordIndex(3),
		RunID("abc"),
		Float64("score", 0.9),
		String("note", "two words"),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO  batch [locate #3]: row done") {
		t.Fatalf("unexpected prefix in %q", line)
	}
	if !strings.Contains(line, "score=0.9000") || !strings.Contains(line, `note="two words"`) {
		t.Fatalf("unexpected attrs in %q", line)
	}
	if strings.Contains(line, "abc") {
		t.Fatalf("run id should be hidden on console: %q", line)
	}
}

func TestNewLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNewAutoFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "auto", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected JSON for non-terminal writer, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewTeesIntoFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf, FilePath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("both sinks")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"both sinks"`) {
		t.Fatalf("file missing JSON record: %q", data)
	}
	if !strings.Contains(buf.String(), "both sinks") {
		t.Fatalf("console missing record: %q", buf.String())
	}
}

func TestRunLogName(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	if got := RunLogName(started, "0123456789abcdef"); got != "pitchdna-20240501T123000Z-01234567.log" {
		t.Fatalf("RunLogName = %q", got)
	}
	if got := RunLogName(started, ""); got != "pitchdna-20240501T123000Z.log" {
		t.Fatalf("RunLogName without id = %q", got)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithStage(ctx, "link")
	ctx = services.WithRecordIndex(ctx, 7)
	WithContext(ctx, base).Info("ctx")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldRunID] != "run-1" || rec[FieldStage] != "link" || rec[FieldRecordIndex] != float64(7) {
		t.Fatalf("unexpected context fields %v", rec)
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	WarnWithContext(logger, "flush failed", "checkpoint_flush_failed", String(FieldImpact, "progress not saved"), Error(errors.New("disk full")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldEventType] != "checkpoint_flush_failed" {
		t.Fatalf("event_type = %v", rec[FieldEventType])
	}
	if rec[FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if rec[FieldImpact] != "progress not saved" {
		t.Fatalf("impact overridden: %v", rec[FieldImpact])
	}
	WarnWithContext(nil, "ignored", "noop")
}

func TestTeeHandlerDropsNilSinks(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when all sinks are nil")
	}
	var a, b bytes.Buffer
	la, _ := New(Options{Level: "info", Format: "json", Writer: &a})
	lb, _ := New(Options{Level: "warn", Format: "json", Writer: &b})
	logger := TeeLogger(la, nil, lb.Handler())
	logger.With(String(FieldComponent, "x")).Info("info only")
	logger.Warn("both")

	if strings.Count(a.String(), "\n") != 2 {
		t.Fatalf("first sink got %q", a.String())
	}
	if strings.Contains(b.String(), "info only") || !strings.Contains(b.String(), "both") {
		t.Fatalf("second sink got %q", b.String())
	}
}

func TestDecisionAttrs(t *testing.T) {
	attrs := DecisionAttrs("event_tiebreak", "nearest", "closest features", Int("survivors", 2))
	if len(attrs) != 4 || attrs[0].Key != FieldDecisionType || attrs[3].Key != "survivors" {
		t.Fatalf("unexpected attrs %v", attrs)
	}
}
