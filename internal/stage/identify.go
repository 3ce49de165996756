package stage

import (
	"context"

	"pitchdna/internal/batch"
	"pitchdna/internal/config"
	"pitchdna/internal/identity"
	"pitchdna/internal/records"
	"pitchdna/internal/services"
)

// Identify maps each row's player name to a canonical player id.
type Identify struct {
	resolver *identity.Resolver
	cols     config.Columns
}

// NewIdentify returns the identify stage.
func NewIdentify(resolver *identity.Resolver, cols config.Columns) *Identify {
	return &Identify{resolver: resolver, cols: cols}
}

func (s *Identify) Name() string { return NameIdentify }

func (s *Identify) Columns() []string {
	return []string{s.cols.PlayerID, ColumnPlayerMatch, ColumnPlayerScore, ColumnPlayerCandidate}
}

// Process resolves the name cell. Below the threshold the id stays empty
// and the best guess goes to player_candidate for review.
func (s *Identify) Process(_ context.Context, row batch.Row) batch.Outcome {
	res := s.resolver.Resolve(row.Get(s.cols.Name))
	cells := make(map[string]string, 3)
	switch {
	case res.Found():
		cells[s.cols.PlayerID] = records.FormatInt(res.Value.ID)
		cells[ColumnPlayerMatch] = res.Reason
		cells[ColumnPlayerScore] = records.FormatFloat(res.Confidence)
	case res.Value.Name != "":
		cells[ColumnPlayerCandidate] = res.Value.Name
		cells[ColumnPlayerScore] = records.FormatFloat(res.Confidence)
	}
	return batch.FromResult(res, cells)
}

func (s *Identify) HealthCheck(context.Context) Health {
	if s.resolver == nil || s.resolver.Table().Len() == 0 {
		return Unhealthy(NameIdentify, "player reference table is empty; pass --reference or set paths.reference")
	}
	return Healthy(NameIdentify)
}

// resolvePlayerID returns the row's player id, falling back to the
// reference table when the cell is blank.
func resolvePlayerID(stage string, row batch.Row, cols config.Columns, ids *identity.Resolver) (int64, error) {
	if id, ok := identity.ParseID(row.Get(cols.PlayerID)); ok {
		return id, nil
	}
	if ids == nil {
		return 0, services.Wrap(services.ErrMissingInput, stage, "read row", "missing player id", nil)
	}
	res := ids.Resolve(row.Get(cols.Name))
	if !res.Found() {
		return 0, res.Err
	}
	return res.Value.ID, nil
}
