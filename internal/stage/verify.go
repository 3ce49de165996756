package stage

import (
	"context"
	"strconv"
	"strings"

	"pitchdna/internal/batch"
	"pitchdna/internal/catalog"
	"pitchdna/internal/config"
	"pitchdna/internal/events"
	"pitchdna/internal/names"
	"pitchdna/internal/records"
	"pitchdna/internal/resolution"
	"pitchdna/internal/services"
	"pitchdna/internal/similarity"
)

// Verify checks that the pitcher of a linked play matches the row's name.
type Verify struct {
	source    events.Source
	scorer    similarity.Scorer
	threshold float64
	cols      config.Columns
	transport *catalog.Transport
}

// NewVerify returns the verify stage. A nil scorer selects token_sort; a
// non-positive threshold selects events.DefaultNameThreshold.
func NewVerify(source events.Source, scorer similarity.Scorer, threshold float64, cols config.Columns, transport *catalog.Transport) *Verify {
	if scorer == nil {
		scorer = similarity.TokenSort{}
	}
	if threshold <= 0 {
		threshold = events.DefaultNameThreshold
	}
	return &Verify{source: source, scorer: scorer, threshold: threshold, cols: cols, transport: transport}
}

func (s *Verify) Name() string { return NameVerify }

func (s *Verify) Columns() []string {
	return []string{ColumnPitcherVerified, ColumnPitcherScore}
}

func (s *Verify) Process(ctx context.Context, row batch.Row) batch.Outcome {
	gamePK, ok := positiveInt(row.Get(s.cols.GamePK))
	if !ok {
		return missingInput(NameVerify, "missing game pk")
	}
	playID := strings.TrimSpace(row.Get(s.cols.PlayID))
	if playID == "" {
		playID, _ = catalog.PlayIDFromURL(row.Get(s.cols.VideoURL))
	}
	if playID == "" {
		return missingInput(NameVerify, "missing play id")
	}
	name := names.Canonical(row.Get(s.cols.Name))
	if name == "" {
		return missingInput(NameVerify, "missing pitcher name")
	}

	candidates, err := s.source.GetOrFetch(ctx, catalog.GameKey(gamePK))
	if err != nil {
		return batch.Failed(services.Wrap(services.ErrFetchFailure, NameVerify, "fetch game", "fetch failed", err))
	}
	for _, c := range candidates {
		if c.Ref.PlayID != playID {
			continue
		}
		score := s.scorer.Score(name, names.Canonical(c.Owner))
		verified := score >= s.threshold
		cells := map[string]string{
			ColumnPitcherVerified: strconv.FormatBool(verified),
			ColumnPitcherScore:    records.FormatFloat(score),
		}
		if verified {
			return batch.Outcome{Cells: cells, Status: resolution.StatusResolved}
		}
		return batch.Outcome{
			Cells:  cells,
			Status: resolution.StatusUnresolved,
			Err:    services.Wrap(services.ErrLowConfidence, NameVerify, "compare pitcher", "pitcher "+c.Owner+" does not match", nil),
		}
	}
	return batch.Failed(services.Wrap(services.ErrNoCandidate, NameVerify, "find play", "play "+playID+" not in game log", nil))
}

func (s *Verify) HealthCheck(context.Context) Health {
	return breakerHealth(NameVerify, s.transport)
}
