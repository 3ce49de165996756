package stage

import (
	"pitchdna/internal/batch"
	"pitchdna/internal/catalog"
	"pitchdna/internal/config"
	"pitchdna/internal/features"
	"pitchdna/internal/services"
)

// pitchVector reads the observed pitch features of a row.
func pitchVector(row batch.Row, cols config.Columns) features.Vector {
	return features.Vector{
		features.Parse(features.Speed, row.Get(cols.Speed)),
		features.Parse(features.Spin, row.Get(cols.Spin)),
		features.Parse(features.BreakX, row.Get(cols.BreakX)),
		features.Parse(features.BreakZ, row.Get(cols.BreakZ)),
	}
}

// positiveInt parses a numeric cell that must be a positive integer.
func positiveInt(raw string) (int64, bool) {
	v, ok := catalog.ParseInt(raw)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

func missingInput(stage, message string) batch.Outcome {
	return batch.Failed(services.Wrap(services.ErrMissingInput, stage, "read row", message, nil))
}

// breakerHealth reports a stage unhealthy while its catalog breaker is open.
func breakerHealth(name string, t *catalog.Transport) Health {
	if t != nil && t.State() == "open" {
		return Unhealthy(name, "catalog circuit breaker open; retry after the cool-down")
	}
	return Healthy(name)
}
