package stage

import (
	"context"

	"pitchdna/internal/batch"
)

// Handler describes the contract the stage runner needs from each stage.
type Handler interface {
	batch.Processor
	HealthCheck(context.Context) Health
}

// Stage names, also used as command names and status column prefixes.
const (
	NameIdentify = "identify"
	NameLocate   = "locate"
	NameLink     = "link"
	NameVerify   = "verify"
	NameCheck    = "check"
)

// Output columns that are not configurable input names.
const (
	ColumnPlayerMatch     = "player_match"
	ColumnPlayerScore     = "player_score"
	ColumnPlayerCandidate = "player_candidate"
	ColumnPitcherVerified = "pitcher_verified"
	ColumnPitcherScore    = "pitcher_score"
	ColumnVideoAvailable  = "video_available"
)
