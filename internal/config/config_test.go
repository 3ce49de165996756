package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"pitchdna/internal/config"
	"pitchdna/internal/services"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "pitchdna", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "pitchdna", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.StatsAPI.BaseURL != "https://statsapi.mlb.com/api/v1" {
		t.Fatalf("unexpected statsapi url: %q", cfg.StatsAPI.BaseURL)
	}
	if cfg.Resolver.Scorer != "token_sort" || cfg.Resolver.NameThreshold != 0.85 {
		t.Fatalf("unexpected resolver defaults: %+v", cfg.Resolver)
	}
	if cfg.Batch.CheckpointEvery != 100 || cfg.Batch.Workers != 1 || cfg.Batch.CheckpointFormat != config.CheckpointCSV {
		t.Fatalf("unexpected batch defaults: %+v", cfg.Batch)
	}
	if cfg.Columns.Speed != "avg_speed" {
		t.Fatalf("unexpected speed column: %q", cfg.Columns.Speed)
	}
}

func TestLoadReadsFileAndNormalizes(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "pitchdna.toml")
	content := `
[paths]
reference = "~/ids.csv"

[statsapi]
base_url = "http://localhost:8080/api/v1/"

[resolver]
scorer = " RATIO "
name_threshold = 0.9

[batch]
checkpoint_format = "SQLite"
workers = 4

[columns]
name = "pitcher_name"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %s to be loaded, got %q exists=%v", path, resolved, exists)
	}
	if cfg.StatsAPI.BaseURL != "http://localhost:8080/api/v1" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.StatsAPI.BaseURL)
	}
	if cfg.Resolver.Scorer != "ratio" || cfg.Resolver.NameThreshold != 0.9 {
		t.Fatalf("unexpected resolver: %+v", cfg.Resolver)
	}
	if cfg.Batch.CheckpointFormat != config.CheckpointSQLite || cfg.Batch.Workers != 4 {
		t.Fatalf("unexpected batch: %+v", cfg.Batch)
	}
	if cfg.Columns.Name != "pitcher_name" || cfg.Columns.PitchType != "pitch_type" {
		t.Fatalf("unexpected columns: %+v", cfg.Columns)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
	if !filepath.IsAbs(cfg.Paths.Reference) || !strings.HasSuffix(cfg.Paths.Reference, "ids.csv") {
		t.Fatalf("reference not expanded: %q", cfg.Paths.Reference)
	}
}

func TestLoadPrefersProjectFileWhenUserFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile("pitchdna.toml", []byte("[batch]\nworkers = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || filepath.Base(resolved) != "pitchdna.toml" || cfg.Batch.Workers != 2 {
		t.Fatalf("project config not used: %q exists=%v workers=%d", resolved, exists, cfg.Batch.Workers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PITCHDNA_LOG_LEVEL", "warn")
	t.Setenv("PITCHDNA_STATCAST_URL", "http://127.0.0.1:9/csv")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Statcast.BaseURL != "http://127.0.0.1:9/csv" {
		t.Fatalf("statcast url = %q", cfg.Statcast.BaseURL)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[batch]\nworkerz = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"scorer":    func(c *config.Config) { c.Resolver.Scorer = "jaro" },
		"threshold": func(c *config.Config) { c.Resolver.NameThreshold = 1.5 },
		"format":    func(c *config.Config) { c.Batch.CheckpointFormat = "parquet" },
		"workers":   func(c *config.Config) { c.Batch.Workers = -1 },
		"url":       func(c *config.Config) { c.StatsAPI.BaseURL = "statsapi" },
		"breaker":   func(c *config.Config) { c.Breaker.MaxFailures = 0 },
		"log":       func(c *config.Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	var parsed config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &parsed); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	def := config.Default()
	if parsed.Resolver != def.Resolver || parsed.Batch != def.Batch || parsed.Columns != def.Columns {
		t.Fatalf("sample drifted from defaults:\n%+v\n%+v", parsed, def)
	}
	if parsed.StatsAPI != def.StatsAPI || parsed.Statcast != def.Statcast || parsed.Logging != def.Logging {
		t.Fatalf("sample catalogs or logging drifted from defaults")
	}
}

func TestCreateSampleAndEncode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != config.SampleConfig() {
		t.Fatal("sample file content mismatch")
	}

	cfg := config.Default()
	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(out, "checkpoint_every = 100") {
		t.Fatalf("encoded config missing batch section:\n%s", out)
	}
}

func TestCheckpointPath(t *testing.T) {
	cfg := config.Default()
	if got := cfg.CheckpointPath("/tmp/out.csv"); got != "/tmp/out.csv" {
		t.Fatalf("csv checkpoint path = %q", got)
	}
	cfg.Batch.CheckpointFormat = config.CheckpointSQLite
	if got := cfg.CheckpointPath("/tmp/out.csv"); got != "/tmp/out.checkpoint.db" {
		t.Fatalf("sqlite checkpoint path = %q", got)
	}
}
