package config

const (
	defaultWorkDir          = "~/.local/share/pitchdna"
	defaultLogDir           = "~/.local/share/pitchdna/logs"
	defaultLogRetentionDays = 30
	defaultLogFormat        = "auto"
	defaultLogLevel         = "info"

	defaultStatsAPIURL = "https://statsapi.mlb.com/api/v1"
	defaultStatcastURL = "https://baseballsavant.mlb.com/statcast_search/csv"
	defaultVideoURL    = "https://baseballsavant.mlb.com/sporty-videos"

	defaultCatalogTimeoutSeconds = 30
	defaultStatsAPIRate          = 5
	defaultStatcastRate          = 1
	defaultCatalogBurst          = 1
	defaultCatalogMaxRetries     = 3

	defaultClipTimeoutSeconds = 10
	defaultClipRate           = 2
	defaultClipMaxRetries     = 1

	defaultScorer            = "token_sort"
	defaultIdentityThreshold = 0.85
	defaultNameThreshold     = 0.85

	defaultCheckpointEvery = 100
	defaultWorkers         = 1

	defaultBreakerMaxFailures = 5
	defaultBreakerOpenSeconds = 30
)

// Checkpoint formats accepted by batch.checkpoint_format.
const (
	CheckpointCSV    = "csv"
	CheckpointSQLite = "sqlite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		StatsAPI: Catalog{
			BaseURL:           defaultStatsAPIURL,
			TimeoutSeconds:    defaultCatalogTimeoutSeconds,
			RequestsPerSecond: defaultStatsAPIRate,
			Burst:             defaultCatalogBurst,
			MaxRetries:        defaultCatalogMaxRetries,
		},
		Statcast: Catalog{
			BaseURL:           defaultStatcastURL,
			TimeoutSeconds:    defaultCatalogTimeoutSeconds,
			RequestsPerSecond: defaultStatcastRate,
			Burst:             defaultCatalogBurst,
			MaxRetries:        defaultCatalogMaxRetries,
		},
		Savant: Savant{
			VideoURL:          defaultVideoURL,
			TimeoutSeconds:    defaultClipTimeoutSeconds,
			RequestsPerSecond: defaultClipRate,
			Burst:             defaultCatalogBurst,
			MaxRetries:        defaultClipMaxRetries,
		},
		Resolver: Resolver{
			Scorer:            defaultScorer,
			IdentityThreshold: defaultIdentityThreshold,
			NameThreshold:     defaultNameThreshold,
		},
		Batch: Batch{
			CheckpointEvery:  defaultCheckpointEvery,
			CheckpointFormat: CheckpointCSV,
			Workers:          defaultWorkers,
		},
		Breaker: Breaker{
			MaxFailures: defaultBreakerMaxFailures,
			OpenSeconds: defaultBreakerOpenSeconds,
		},
		Columns: DefaultColumns(),
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// DefaultColumns returns the column names the original record sheets use.
func DefaultColumns() Columns {
	return Columns{
		Name:        "name",
		PlayerID:    "player_id",
		Year:        "year",
		PitchType:   "pitch_type",
		GamePK:      "game_pk",
		PitchNumber: "pitch_number",
		PlayID:      "play_id",
		VideoURL:    "video_url",
		Speed:       "avg_speed",
		Spin:        "avg_spin",
		BreakX:      "avg_break_x",
		BreakZ:      "avg_break_z",
	}
}
