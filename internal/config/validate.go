package config

import (
	"fmt"
	"net/url"
	"strings"

	"pitchdna/internal/services"
)

// Validate ensures the configuration is usable. Every failure wraps
// services.ErrConfiguration.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validateCatalogs,
		c.validateResolver,
		c.validateBatch,
		c.validateBreaker,
		c.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrConfiguration, fmt.Sprintf(format, args...))
}

func (c *Config) validateCatalogs() error {
	for section, cat := range map[string]Catalog{"statsapi": c.StatsAPI, "statcast": c.Statcast, "savant": c.Savant.Catalog()} {
		field := section + ".base_url"
		if section == "savant" {
			field = "savant.video_url"
		}
		if err := validateURL(field, cat.BaseURL); err != nil {
			return err
		}
		if cat.RequestsPerSecond < 0 {
			return invalid("%s.requests_per_second must be >= 0", section)
		}
		if cat.MaxRetries < 0 {
			return invalid("%s.max_retries must be >= 0", section)
		}
	}
	return nil
}

func validateURL(field, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return invalid("%s must be an absolute http(s) URL, got %q", field, raw)
	}
	return nil
}

func (c *Config) validateResolver() error {
	switch c.Resolver.Scorer {
	case "ratio", "token_sort":
	default:
		return invalid("resolver.scorer must be ratio or token_sort, got %q", c.Resolver.Scorer)
	}
	if c.Resolver.IdentityThreshold <= 0 || c.Resolver.IdentityThreshold > 1 {
		return invalid("resolver.identity_threshold must be in (0, 1]")
	}
	if c.Resolver.NameThreshold <= 0 || c.Resolver.NameThreshold > 1 {
		return invalid("resolver.name_threshold must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateBatch() error {
	switch c.Batch.CheckpointFormat {
	case CheckpointCSV, CheckpointSQLite:
	default:
		return invalid("batch.checkpoint_format must be %s or %s, got %q", CheckpointCSV, CheckpointSQLite, c.Batch.CheckpointFormat)
	}
	if c.Batch.CheckpointEvery < 1 {
		return invalid("batch.checkpoint_every must be positive")
	}
	if c.Batch.Workers < 1 {
		return invalid("batch.workers must be positive")
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if c.Breaker.MaxFailures < 1 {
		return invalid("breaker.max_failures must be positive")
	}
	if c.Breaker.OpenSeconds < 1 {
		return invalid("breaker.open_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return invalid("logging.format must be console, json, or auto, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
