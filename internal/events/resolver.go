package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pitchdna/internal/catalog"
	"pitchdna/internal/features"
	"pitchdna/internal/logging"
	"pitchdna/internal/names"
	"pitchdna/internal/resolution"
	"pitchdna/internal/services"
	"pitchdna/internal/similarity"
)

// DefaultNameThreshold is the minimum owner-name score a candidate needs to
// survive the name filter.
const DefaultNameThreshold = 0.85

// Reasons attached to found results.
const (
	ReasonUnique  = "unique candidate"
	ReasonNearest = "nearest features"
)

// Query describes one observed event.
type Query struct {
	Key         string
	Sequence    int
	HasSequence bool
	Code        string
	Owner       string
	Features    features.Vector
}

// Source yields the candidate list for a remote key. rescache.Cache
// satisfies it.
type Source interface {
	GetOrFetch(ctx context.Context, key string) ([]catalog.Candidate, error)
}

// Resolver narrows catalog candidates down to the event a query describes.
type Resolver struct {
	scorer    similarity.Scorer
	threshold float64
	logger    *slog.Logger
}

// NewResolver returns a resolver. A nil scorer selects token_sort; a
// non-positive threshold selects DefaultNameThreshold.
func NewResolver(scorer similarity.Scorer, threshold float64, logger *slog.Logger) *Resolver {
	if scorer == nil {
		scorer = similarity.TokenSort{}
	}
	if threshold <= 0 {
		threshold = DefaultNameThreshold
	}
	return &Resolver{scorer: scorer, threshold: threshold, logger: logging.NewComponentLogger(logger, "events")}
}

// Resolve runs the cascade: hard filter on sequence and code, name filter on
// the owner, then nearest-neighbour over features when more than one
// candidate survives. When features cannot separate the survivors the first
// one is returned as ambiguous. Failures never escape as panics.
func (r *Resolver) Resolve(ctx context.Context, q Query, src Source) (res resolution.Result[catalog.Candidate]) {
	defer func() {
		if rec := recover(); rec != nil {
			res = resolution.Unresolved[catalog.Candidate](fmt.Errorf("resolve %s: panic: %v", q.Key, rec))
		}
	}()

	key := strings.TrimSpace(q.Key)
	code := strings.TrimSpace(q.Code)
	owner := names.Canonical(q.Owner)
	switch {
	case key == "":
		return unresolved(services.ErrMissingInput, "missing catalog key")
	case code == "":
		return unresolved(services.ErrMissingInput, "missing pitch type")
	case owner == "":
		return unresolved(services.ErrMissingInput, "missing pitcher name")
	}

	candidates, err := src.GetOrFetch(ctx, key)
	if err != nil {
		return resolution.Unresolved[catalog.Candidate](
			services.Wrap(services.ErrFetchFailure, "events", "resolve", "fetch failed", err))
	}

	survivors := make([]catalog.Candidate, 0, len(candidates))
	scores := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		if q.HasSequence && (!c.HasSequence || c.Sequence != q.Sequence) {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(c.Code), code) {
			continue
		}
		score := r.scorer.Score(owner, names.Canonical(c.Owner))
		if score < r.threshold {
			continue
		}
		survivors = append(survivors, c)
		scores = append(scores, score)
	}

	logger := logging.WithContext(ctx, r.logger)
	switch len(survivors) {
	case 0:
		return unresolved(services.ErrNoCandidate, "no surviving candidate")
	case 1:
		out := resolution.Resolved(survivors[0], scores[0])
		out.Reason = ReasonUnique
		return out
	}

	vectors := make([]features.Vector, len(survivors))
	for i, c := range survivors {
		vectors[i] = c.Features
	}
	ranked := features.Rank(q.Features, vectors)
	if ranked.Status == resolution.StatusResolved {
		out := resolution.Resolved(survivors[ranked.Value], ranked.Confidence)
		out.Reason = ReasonNearest
		logger.Debug("event chosen by feature distance", logging.Args(logging.DecisionAttrs("event_tiebreak", "nearest", ReasonNearest,
			logging.String("key", key),
			logging.Int("survivors", len(survivors)),
			logging.Float64("confidence", ranked.Confidence),
		)...)...)
		return out
	}
	logger.Debug("event fell back to first survivor", logging.Args(logging.DecisionAttrs("event_tiebreak", "first", ranked.Reason,
		logging.String("key", key),
		logging.Int("survivors", len(survivors)),
	)...)...)
	return resolution.Ambiguous(survivors[0], scores[0], services.ErrAmbiguousFallback,
		fmt.Sprintf("%d candidates, %s", len(survivors), ranked.Reason))
}

func unresolved(kind error, message string) resolution.Result[catalog.Candidate] {
	return resolution.Unresolved[catalog.Candidate](services.Wrap(kind, "events", "resolve", message, nil))
}

// ParseSequence reads a sequence number cell. "7" and "7.0" both yield 7.
func ParseSequence(raw string) (int, bool) {
	v, ok := catalog.ParseInt(raw)
	if !ok || v < 0 {
		return 0, false
	}
	return int(v), true
}
