package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and reference file locations.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
	Reference string `toml:"reference"`
}

// Catalog contains connection settings for one remote pitch catalog.
type Catalog struct {
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	MaxRetries        int     `toml:"max_retries"`
}

// Timeout returns the per-request timeout as a duration.
func (c Catalog) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Savant contains Baseball Savant clip link settings. The request settings
// apply when the check stage fetches clip pages.
type Savant struct {
	VideoURL          string  `toml:"video_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	MaxRetries        int     `toml:"max_retries"`
}

// Catalog returns the clip host settings in catalog form.
func (s Savant) Catalog() Catalog {
	return Catalog{
		BaseURL:           s.VideoURL,
		TimeoutSeconds:    s.TimeoutSeconds,
		RequestsPerSecond: s.RequestsPerSecond,
		Burst:             s.Burst,
		MaxRetries:        s.MaxRetries,
	}
}

// Resolver contains matching thresholds and the similarity scorer name.
type Resolver struct {
	Scorer            string  `toml:"scorer"`
	IdentityThreshold float64 `toml:"identity_threshold"`
	NameThreshold     float64 `toml:"name_threshold"`
}

// Batch contains checkpointing and worker settings for stage runs.
type Batch struct {
	CheckpointEvery  int    `toml:"checkpoint_every"`
	CheckpointFormat string `toml:"checkpoint_format"`
	Workers          int    `toml:"workers"`
}

// Breaker contains circuit breaker settings shared by both catalogs.
type Breaker struct {
	MaxFailures int `toml:"max_failures"`
	OpenSeconds int `toml:"open_seconds"`
}

// OpenDuration returns how long an open breaker rejects requests.
func (b Breaker) OpenDuration() time.Duration {
	return time.Duration(b.OpenSeconds) * time.Second
}

// Columns names the input table columns read by the pipeline stages.
type Columns struct {
	Name        string `toml:"name"`
	PlayerID    string `toml:"player_id"`
	Year        string `toml:"year"`
	PitchType   string `toml:"pitch_type"`
	GamePK      string `toml:"game_pk"`
	PitchNumber string `toml:"pitch_number"`
	PlayID      string `toml:"play_id"`
	VideoURL    string `toml:"video_url"`
	Speed       string `toml:"speed"`
	Spin        string `toml:"spin"`
	BreakX      string `toml:"break_x"`
	BreakZ      string `toml:"break_z"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for pitchdna.
//
// Configuration sections by subsystem:
//   - Paths: working directory, run logs, and the player reference table
//   - StatsAPI / Statcast: remote catalog endpoints and throttling
//   - Savant: video link base URL and clip check request settings
//   - Resolver: scorer and similarity thresholds
//   - Batch: checkpoint cadence, format, and worker count
//   - Breaker: circuit breaker for catalog requests
//   - Columns: input column names
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	StatsAPI Catalog  `toml:"statsapi"`
	Statcast Catalog  `toml:"statcast"`
	Savant   Savant   `toml:"savant"`
	Resolver Resolver `toml:"resolver"`
	Batch    Batch    `toml:"batch"`
	Breaker  Breaker  `toml:"breaker"`
	Columns  Columns  `toml:"columns"`
	Logging  Logging  `toml:"logging"`
}

const (
	userConfigPath    = "~/.config/pitchdna/config.toml"
	projectConfigName = "pitchdna.toml"
)

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(userConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(userConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CheckpointPath returns where a stage run keeps its checkpoint for output.
// CSV checkpoints are the output file itself; SQLite checkpoints live beside it.
func (c *Config) CheckpointPath(output string) string {
	if c.Batch.CheckpointFormat == CheckpointSQLite {
		return strings.TrimSuffix(output, filepath.Ext(output)) + ".checkpoint.db"
	}
	return output
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders cfg as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}
