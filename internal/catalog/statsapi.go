package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"pitchdna/internal/features"
	"pitchdna/internal/services"
)

// DefaultStatsAPIURL is the public MLB Stats API root.
const DefaultStatsAPIURL = "https://statsapi.mlb.com/api/v1"

// StatsAPI reads per-game play-by-play logs. Keys have the form game:<pk>.
type StatsAPI struct {
	baseURL   string
	transport *Transport
}

var _ Client = (*StatsAPI)(nil)

// Option configures a catalog client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
	transport  TransportOptions
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithTransportOptions sets rate limit, retry and breaker tuning.
func WithTransportOptions(opts TransportOptions) Option {
	return func(o *clientOptions) {
		name := o.transport.Name
		o.transport = opts
		if o.transport.Name == "" {
			o.transport.Name = name
		}
	}
}

func applyOptions(name string, opts []Option) clientOptions {
	o := clientOptions{transport: TransportOptions{Name: name}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewStatsAPI creates a StatsAPI client.
func NewStatsAPI(baseURL string, opts ...Option) (*StatsAPI, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("statsapi base url required")
	}
	o := applyOptions("statsapi", opts)
	return &StatsAPI{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: NewTransport(o.transport, o.httpClient, o.logger),
	}, nil
}

// Transport exposes the client's transport.
func (c *StatsAPI) Transport() *Transport { return c.transport }

// Fetch returns every pitch in the game's play-by-play feed in feed order.
func (c *StatsAPI) Fetch(ctx context.Context, key string) ([]Candidate, error) {
	gamePK, err := ParseGameKey(key)
	if err != nil {
		return nil, services.Wrap(services.ErrMissingInput, "statsapi", "parse key", "", err)
	}
	endpoint := c.baseURL + "/game/" + strconv.FormatInt(gamePK, 10) + "/playByPlay"
	body, err := c.transport.Get(ctx, endpoint)
	if err != nil {
		return nil, services.Wrap(services.ErrFetchFailure, "statsapi", "fetch play-by-play", key, err)
	}
	candidates, err := decodePlayByPlay(body, gamePK)
	if err != nil {
		return nil, services.Wrap(services.ErrFetchFailure, "statsapi", "decode play-by-play", key, err)
	}
	return candidates, nil
}

type playByPlay struct {
	AllPlays []play `json:"allPlays"`
}

type play struct {
	About struct {
		AtBatIndex flexInt `json:"atBatIndex"`
	} `json:"about"`
	Matchup struct {
		Pitcher struct {
			ID       flexInt `json:"id"`
			FullName string  `json:"fullName"`
		} `json:"pitcher"`
	} `json:"matchup"`
	PlayEvents []playEvent `json:"playEvents"`
}

type playEvent struct {
	IsPitch     bool    `json:"isPitch"`
	PitchNumber flexInt `json:"pitchNumber"`
	PlayID      string  `json:"playId"`
	Details     struct {
		Type struct {
			Code string `json:"code"`
		} `json:"type"`
	} `json:"details"`
	PitchData pitchData `json:"pitchData"`
}

type pitchData struct {
	StartSpeed *float64 `json:"startSpeed"`
	SpinRate   *float64 `json:"spinRate"`
	BreakX     *float64 `json:"breakX"`
	BreakZ     *float64 `json:"breakZ"`
	Breaks     struct {
		SpinRate *float64 `json:"spinRate"`
	} `json:"breaks"`
	Coordinates struct {
		PfxX *float64 `json:"pfxX"`
		PfxZ *float64 `json:"pfxZ"`
	} `json:"coordinates"`
}

func (p pitchData) vector() features.Vector {
	return features.Vector{
		optional(features.Speed, p.StartSpeed),
		optional(features.Spin, firstOf(p.Breaks.SpinRate, p.SpinRate)),
		optional(features.BreakX, firstOf(p.Coordinates.PfxX, p.BreakX)),
		optional(features.BreakZ, firstOf(p.Coordinates.PfxZ, p.BreakZ)),
	}
}

func decodePlayByPlay(body []byte, gamePK int64) ([]Candidate, error) {
	var payload playByPlay
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	var out []Candidate
	for _, p := range payload.AllPlays {
		for _, ev := range p.PlayEvents {
			if !ev.IsPitch {
				continue
			}
			out = append(out, Candidate{
				Sequence:    int(ev.PitchNumber.Value),
				HasSequence: ev.PitchNumber.Set,
				Code:        strings.TrimSpace(ev.Details.Type.Code),
				Owner:       strings.TrimSpace(p.Matchup.Pitcher.FullName),
				OwnerID:     p.Matchup.Pitcher.ID.Value,
				Features:    ev.PitchData.vector(),
				Ref: EventRef{
					GamePK:      gamePK,
					AtBat:       int(p.About.AtBatIndex.Value),
					PitchNumber: int(ev.PitchNumber.Value),
					PlayID:      strings.TrimSpace(ev.PlayID),
				},
			})
		}
	}
	return out, nil
}

// flexInt decodes integers sent as numbers, integral floats or strings.
type flexInt struct {
	Value int64
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*f = flexInt{}
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	v, ok := ParseInt(raw)
	if !ok {
		*f = flexInt{}
		return nil
	}
	*f = flexInt{Value: v, Set: true}
	return nil
}

func optional(name string, v *float64) features.Feature {
	if v == nil {
		return features.Missing(name)
	}
	return features.Of(name, *v)
}

func firstOf(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
