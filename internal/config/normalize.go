package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalogs()
	c.normalizeResolver()
	c.normalizeBatch()
	c.normalizeBreaker()
	c.normalizeColumns()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	// An explicitly empty log_dir disables the run log file.
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.Reference, err = expandPath(strings.TrimSpace(c.Paths.Reference)); err != nil {
		return fmt.Errorf("paths.reference: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalogs() {
	if value, ok := os.LookupEnv("PITCHDNA_STATSAPI_URL"); ok && strings.TrimSpace(value) != "" {
		c.StatsAPI.BaseURL = value
	}
	if value, ok := os.LookupEnv("PITCHDNA_STATCAST_URL"); ok && strings.TrimSpace(value) != "" {
		c.Statcast.BaseURL = value
	}
	normalizeCatalog(&c.StatsAPI, defaultStatsAPIURL)
	normalizeCatalog(&c.Statcast, defaultStatcastURL)

	c.Savant.VideoURL = strings.TrimSpace(c.Savant.VideoURL)
	if c.Savant.VideoURL == "" {
		c.Savant.VideoURL = defaultVideoURL
	}
	if c.Savant.TimeoutSeconds <= 0 {
		c.Savant.TimeoutSeconds = defaultClipTimeoutSeconds
	}
	if c.Savant.Burst <= 0 {
		c.Savant.Burst = defaultCatalogBurst
	}
}

func normalizeCatalog(cat *Catalog, fallbackURL string) {
	cat.BaseURL = strings.TrimRight(strings.TrimSpace(cat.BaseURL), "/")
	if cat.BaseURL == "" {
		cat.BaseURL = fallbackURL
	}
	if cat.TimeoutSeconds <= 0 {
		cat.TimeoutSeconds = defaultCatalogTimeoutSeconds
	}
	if cat.Burst <= 0 {
		cat.Burst = defaultCatalogBurst
	}
}

func (c *Config) normalizeResolver() {
	c.Resolver.Scorer = strings.ToLower(strings.TrimSpace(c.Resolver.Scorer))
	if c.Resolver.Scorer == "" {
		c.Resolver.Scorer = defaultScorer
	}
}

func (c *Config) normalizeBatch() {
	c.Batch.CheckpointFormat = strings.ToLower(strings.TrimSpace(c.Batch.CheckpointFormat))
	if c.Batch.CheckpointFormat == "" {
		c.Batch.CheckpointFormat = CheckpointCSV
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = defaultWorkers
	}
	if c.Batch.CheckpointEvery == 0 {
		c.Batch.CheckpointEvery = defaultCheckpointEvery
	}
}

func (c *Config) normalizeBreaker() {
	if c.Breaker.MaxFailures == 0 {
		c.Breaker.MaxFailures = defaultBreakerMaxFailures
	}
	if c.Breaker.OpenSeconds == 0 {
		c.Breaker.OpenSeconds = defaultBreakerOpenSeconds
	}
}

func (c *Config) normalizeColumns() {
	defaults := DefaultColumns()
	fill := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}
	fill(&c.Columns.Name, defaults.Name)
	fill(&c.Columns.PlayerID, defaults.PlayerID)
	fill(&c.Columns.Year, defaults.Year)
	fill(&c.Columns.PitchType, defaults.PitchType)
	fill(&c.Columns.GamePK, defaults.GamePK)
	fill(&c.Columns.PitchNumber, defaults.PitchNumber)
	fill(&c.Columns.PlayID, defaults.PlayID)
	fill(&c.Columns.VideoURL, defaults.VideoURL)
	fill(&c.Columns.Speed, defaults.Speed)
	fill(&c.Columns.Spin, defaults.Spin)
	fill(&c.Columns.BreakX, defaults.BreakX)
	fill(&c.Columns.BreakZ, defaults.BreakZ)
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("PITCHDNA_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
