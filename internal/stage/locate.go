package stage

import (
	"context"

	"pitchdna/internal/batch"
	"pitchdna/internal/catalog"
	"pitchdna/internal/config"
	"pitchdna/internal/events"
	"pitchdna/internal/identity"
	"pitchdna/internal/records"
)

// Locate finds the game and pitch number of a described pitch in the
// pitcher's Statcast season.
type Locate struct {
	source    events.Source
	resolver  *events.Resolver
	ids       *identity.Resolver
	cols      config.Columns
	transport *catalog.Transport
}

// NewLocate returns the locate stage. ids may be nil when every row carries
// a player id.
func NewLocate(source events.Source, resolver *events.Resolver, ids *identity.Resolver, cols config.Columns, transport *catalog.Transport) *Locate {
	return &Locate{source: source, resolver: resolver, ids: ids, cols: cols, transport: transport}
}

func (s *Locate) Name() string { return NameLocate }

func (s *Locate) Columns() []string {
	return []string{s.cols.GamePK, s.cols.PitchNumber}
}

func (s *Locate) Process(ctx context.Context, row batch.Row) batch.Outcome {
	playerID, err := resolvePlayerID(NameLocate, row, s.cols, s.ids)
	if err != nil {
		return batch.Failed(err)
	}
	year, ok := positiveInt(row.Get(s.cols.Year))
	if !ok {
		return missingInput(NameLocate, "missing season year")
	}

	res := s.resolver.Resolve(ctx, events.Query{
		Key:      catalog.PitcherSeasonKey(playerID, int(year)),
		Code:     row.Get(s.cols.PitchType),
		Owner:    row.Get(s.cols.Name),
		Features: pitchVector(row, s.cols),
	}, s.source)
	if !res.Found() {
		return batch.FromResult(res, nil)
	}
	return batch.FromResult(res, map[string]string{
		s.cols.GamePK:      records.FormatInt(res.Value.Ref.GamePK),
		s.cols.PitchNumber: records.FormatInt(int64(res.Value.Ref.PitchNumber)),
	})
}

func (s *Locate) HealthCheck(context.Context) Health {
	return breakerHealth(NameLocate, s.transport)
}
