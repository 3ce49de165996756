package stage

import (
	"context"
	"strconv"

	"pitchdna/internal/batch"
	"pitchdna/internal/catalog"
	"pitchdna/internal/config"
	"pitchdna/internal/resolution"
	"pitchdna/internal/services"
)

// ClipProber reports whether a clip URL serves a video.
type ClipProber interface {
	Check(ctx context.Context, clipURL string) (bool, error)
}

// Check confirms that each linked clip URL still serves a video.
type Check struct {
	prober    ClipProber
	cols      config.Columns
	transport *catalog.Transport
}

// NewCheck returns the check stage.
func NewCheck(prober ClipProber, cols config.Columns, transport *catalog.Transport) *Check {
	return &Check{prober: prober, cols: cols, transport: transport}
}

func (s *Check) Name() string { return NameCheck }

func (s *Check) Columns() []string {
	return []string{ColumnVideoAvailable}
}

func (s *Check) Process(ctx context.Context, row batch.Row) batch.Outcome {
	clipURL := row.Get(s.cols.VideoURL)
	if clipURL == "" {
		return missingInput(NameCheck, "missing video url")
	}
	available, err := s.prober.Check(ctx, clipURL)
	if err != nil {
		return batch.Failed(services.Wrap(services.ErrFetchFailure, NameCheck, "fetch clip", "clip page fetch failed", err))
	}
	cells := map[string]string{ColumnVideoAvailable: strconv.FormatBool(available)}
	if available {
		return batch.Outcome{Cells: cells, Status: resolution.StatusResolved}
	}
	return batch.Outcome{
		Cells:  cells,
		Status: resolution.StatusUnresolved,
		Err:    services.Wrap(services.ErrNoCandidate, NameCheck, "read clip", "no video at "+clipURL, nil),
	}
}

func (s *Check) HealthCheck(context.Context) Health {
	return breakerHealth(NameCheck, s.transport)
}
