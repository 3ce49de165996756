package catalog

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"pitchdna/internal/features"
)

// DefaultVideoURL is the Baseball Savant clip page keyed by play id.
const DefaultVideoURL = "https://baseballsavant.mlb.com/sporty-videos"

// Client fetches every candidate event for one remote key.
type Client interface {
	Fetch(ctx context.Context, key string) ([]Candidate, error)
}

// Candidate is one catalog event. Candidates are never mutated after a
// client returns them.
type Candidate struct {
	Sequence    int
	HasSequence bool
	Code        string
	Owner       string
	OwnerID     int64
	Features    features.Vector
	Ref         EventRef
}

// EventRef locates an event in the public catalogs.
type EventRef struct {
	GamePK      int64  `json:"game_pk"`
	AtBat       int    `json:"at_bat,omitempty"`
	PitchNumber int    `json:"pitch_number"`
	PlayID      string `json:"play_id,omitempty"`
}

// VideoURL renders the clip URL for the event, empty without a play id.
func (r EventRef) VideoURL(base string) string {
	if strings.TrimSpace(r.PlayID) == "" {
		return ""
	}
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultVideoURL
	}
	return base + "?playId=" + url.QueryEscape(r.PlayID)
}

// PlayIDFromURL extracts the playId query parameter from a clip URL.
func PlayIDFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(parsed.Query().Get("playId"))
	return id, id != ""
}

// GameKey is the StatsAPI cache key for one game log.
func GameKey(gamePK int64) string {
	return "game:" + strconv.FormatInt(gamePK, 10)
}

// PitcherSeasonKey is the Statcast cache key for one pitcher-season.
func PitcherSeasonKey(pitcherID int64, season int) string {
	return fmt.Sprintf("pitcher:%d:%d", pitcherID, season)
}

// ParseGameKey reverses GameKey.
func ParseGameKey(key string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(key), "game:")
	if !ok {
		return 0, fmt.Errorf("key %q is not a game key", key)
	}
	pk, ok := ParseInt(rest)
	if !ok || pk <= 0 {
		return 0, fmt.Errorf("key %q has invalid game pk", key)
	}
	return pk, nil
}

// ParsePitcherSeasonKey reverses PitcherSeasonKey.
func ParsePitcherSeasonKey(key string) (int64, int, error) {
	parts := strings.Split(strings.TrimSpace(key), ":")
	if len(parts) != 3 || parts[0] != "pitcher" {
		return 0, 0, fmt.Errorf("key %q is not a pitcher-season key", key)
	}
	id, okID := ParseInt(parts[1])
	season, okSeason := ParseInt(parts[2])
	if !okID || id <= 0 || !okSeason || season < 1900 || season > 9999 {
		return 0, 0, fmt.Errorf("key %q has invalid pitcher or season", key)
	}
	return id, int(season), nil
}

// ParseInt reads an integer written either as "7" or as an integral
// float such as "7.0".
func ParseInt(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}
