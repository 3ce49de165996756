package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"pitchdna/internal/features"
	"pitchdna/internal/services"
)

// DefaultStatcastURL is the Baseball Savant statcast search CSV export.
const DefaultStatcastURL = "https://baseballsavant.mlb.com/statcast_search/csv"

// Statcast reads one pitcher-season of pitch-level data. Keys have the form
// pitcher:<id>:<season>.
type Statcast struct {
	baseURL   string
	transport *Transport
}

var _ Client = (*Statcast)(nil)

// NewStatcast creates a Statcast client.
func NewStatcast(baseURL string, opts ...Option) (*Statcast, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("statcast base url required")
	}
	o := applyOptions("statcast", opts)
	return &Statcast{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: NewTransport(o.transport, o.httpClient, o.logger),
	}, nil
}

// Transport exposes the client's transport.
func (c *Statcast) Transport() *Transport { return c.transport }

// Fetch returns every pitch the pitcher threw in the season. Rows without a
// pitch type are dropped. Movement is converted from feet to inches.
func (c *Statcast) Fetch(ctx context.Context, key string) ([]Candidate, error) {
	pitcherID, season, err := ParsePitcherSeasonKey(key)
	if err != nil {
		return nil, services.Wrap(services.ErrMissingInput, "statcast", "parse key", "", err)
	}
	body, err := c.transport.Get(ctx, c.searchURL(pitcherID, season))
	if err != nil {
		return nil, services.Wrap(services.ErrFetchFailure, "statcast", "fetch pitcher season", key, err)
	}
	candidates, err := decodeStatcastCSV(body)
	if err != nil {
		return nil, services.Wrap(services.ErrFetchFailure, "statcast", "decode csv", key, err)
	}
	return candidates, nil
}

func (c *Statcast) searchURL(pitcherID int64, season int) string {
	year := strconv.Itoa(season)
	params := url.Values{}
	params.Set("all", "true")
	params.Set("type", "details")
	params.Set("player_type", "pitcher")
	params.Set("pitchers_lookup[]", strconv.FormatInt(pitcherID, 10))
	params.Set("hfSea", year+"|")
	params.Set("game_date_gt", year+"-01-01")
	params.Set("game_date_lt", year+"-12-31")
	return c.baseURL + "?" + params.Encode()
}

func decodeStatcastCSV(body []byte) ([]Candidate, error) {
	body = bytes.TrimPrefix(body, []byte("\ufeff"))
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.Trim(strings.TrimSpace(name), `"`)] = i
	}
	for _, required := range []string{"pitch_type", "game_pk", "pitch_number"} {
		if _, ok := pos[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	col := func(row []string, name string) string {
		idx, ok := pos[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var out []Candidate
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		code := col(row, "pitch_type")
		if code == "" {
			continue
		}
		gamePK, _ := ParseInt(col(row, "game_pk"))
		atBat, _ := ParseInt(col(row, "at_bat_number"))
		pitchNumber, hasPitch := ParseInt(col(row, "pitch_number"))
		ownerID, _ := ParseInt(col(row, "pitcher"))
		out = append(out, Candidate{
			Sequence:    int(pitchNumber),
			HasSequence: hasPitch,
			Code:        code,
			Owner:       col(row, "player_name"),
			OwnerID:     ownerID,
			Features: features.Vector{
				features.Parse(features.Speed, col(row, "release_speed")),
				features.Parse(features.Spin, col(row, "release_spin_rate")),
				inches(features.Parse(features.BreakX, col(row, "pfx_x"))),
				inches(features.Parse(features.BreakZ, col(row, "pfx_z"))),
			},
			Ref: EventRef{
				GamePK:      gamePK,
				AtBat:       int(atBat),
				PitchNumber: int(pitchNumber),
			},
		})
	}
	return out, nil
}

func inches(f features.Feature) features.Feature {
	if !f.Valid {
		return f
	}
	return features.Of(f.Name, features.FeetToInches(f.Value))
}
