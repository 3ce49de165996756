package testsupport

import (
	"path/filepath"
	"testing"

	"pitchdna/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Catalog URLs point at an unroutable port until overridden so tests never
// reach the real services.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.StatsAPI.BaseURL = "http://127.0.0.1:1/api/v1"
	cfgVal.Statcast.BaseURL = "http://127.0.0.1:1/statcast_search/csv"
	cfgVal.StatsAPI.MaxRetries = 0
	cfgVal.Statcast.MaxRetries = 0
	cfgVal.StatsAPI.RequestsPerSecond = 0
	cfgVal.Statcast.RequestsPerSecond = 0
	cfgVal.Logging.Format = "json"
	cfgVal.Logging.RetentionDays = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithCatalogURLs points both catalogs at test servers.
func WithCatalogURLs(statsAPI, statcast string) ConfigOption {
	return func(b *configBuilder) {
		if statsAPI != "" {
			b.cfg.StatsAPI.BaseURL = statsAPI
		}
		if statcast != "" {
			b.cfg.Statcast.BaseURL = statcast
		}
	}
}

// WithWorkers sets the batch worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Batch.Workers = n
	}
}

// WithCheckpointFormat selects the checkpoint store format.
func WithCheckpointFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Batch.CheckpointFormat = format
	}
}

// WithReference sets the player reference table path.
func WithReference(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.Reference = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
