package stage

import (
	"context"

	"pitchdna/internal/batch"
	"pitchdna/internal/catalog"
	"pitchdna/internal/config"
	"pitchdna/internal/events"
)

// Link attaches the StatsAPI play id and clip URL to a located pitch.
type Link struct {
	source    events.Source
	resolver  *events.Resolver
	cols      config.Columns
	videoURL  string
	transport *catalog.Transport
}

// NewLink returns the link stage.
func NewLink(source events.Source, resolver *events.Resolver, cols config.Columns, videoURL string, transport *catalog.Transport) *Link {
	return &Link{source: source, resolver: resolver, cols: cols, videoURL: videoURL, transport: transport}
}

func (s *Link) Name() string { return NameLink }

func (s *Link) Columns() []string {
	return []string{s.cols.PlayID, s.cols.VideoURL}
}

// Process narrows the game's pitches to the row's pitch number before the
// name and feature filters run.
func (s *Link) Process(ctx context.Context, row batch.Row) batch.Outcome {
	gamePK, ok := positiveInt(row.Get(s.cols.GamePK))
	if !ok {
		return missingInput(NameLink, "missing game pk")
	}
	sequence, ok := events.ParseSequence(row.Get(s.cols.PitchNumber))
	if !ok {
		return missingInput(NameLink, "missing pitch number")
	}
	q := events.Query{
		Key:         catalog.GameKey(gamePK),
		Code:        row.Get(s.cols.PitchType),
		Owner:       row.Get(s.cols.Name),
		Sequence:    sequence,
		HasSequence: true,
		Features:    pitchVector(row, s.cols),
	}

	res := s.resolver.Resolve(ctx, q, s.source)
	if !res.Found() {
		return batch.FromResult(res, nil)
	}
	return batch.FromResult(res, map[string]string{
		s.cols.PlayID:   res.Value.Ref.PlayID,
		s.cols.VideoURL: res.Value.Ref.VideoURL(s.videoURL),
	})
}

func (s *Link) HealthCheck(context.Context) Health {
	return breakerHealth(NameLink, s.transport)
}
