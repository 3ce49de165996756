package identity

import (
	"pitchdna/internal/names"
	"pitchdna/internal/resolution"
	"pitchdna/internal/services"
	"pitchdna/internal/similarity"
)

// DefaultThreshold is the minimum fuzzy score accepted as a match.
const DefaultThreshold = 0.85

// Reasons attached to resolved results.
const (
	MatchExact = "exact"
	MatchFuzzy = "fuzzy"
)

// Resolver maps free-text names to reference entries.
type Resolver struct {
	table     *Table
	scorer    similarity.Scorer
	threshold float64
}

// NewResolver returns a resolver over table. A nil scorer selects
// token_sort; a non-positive threshold selects DefaultThreshold.
func NewResolver(table *Table, scorer similarity.Scorer, threshold float64) *Resolver {
	if table == nil {
		table = NewTable(nil)
	}
	if scorer == nil {
		scorer = similarity.TokenSort{}
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Resolver{table: table, scorer: scorer, threshold: threshold}
}

// Table exposes the reference table backing the resolver.
func (r *Resolver) Table() *Table { return r.table }

// Resolve maps raw to a reference entry. Exact normalized hits win with
// confidence 1 before any scoring. Otherwise the highest scoring entry is
// accepted when it reaches the threshold; ties go to the earliest entry.
// Below the threshold the result is unresolved but still carries the best
// guess and its score.
func (r *Resolver) Resolve(raw string) resolution.Result[Entry] {
	query := names.Canonical(raw)
	if query == "" {
		return resolution.Unresolved[Entry](services.Wrap(services.ErrMissingInput, "identify", "resolve", "blank name", nil))
	}
	if idx, ok := r.table.index[query]; ok {
		res := resolution.Resolved(r.table.entries[idx], 1.0)
		res.Reason = MatchExact
		return res
	}
	if len(r.table.entries) == 0 {
		return resolution.Unresolved[Entry](services.Wrap(services.ErrNoCandidate, "identify", "resolve", "reference table is empty", nil))
	}

	best, bestScore := -1, 0.0
	for i, candidate := range r.table.normalized {
		score := r.scorer.Score(query, candidate)
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	entry := r.table.entries[best]
	if bestScore >= r.threshold {
		res := resolution.Resolved(entry, bestScore)
		res.Reason = MatchFuzzy
		return res
	}
	return resolution.Unresolved[Entry](
		services.Wrap(services.ErrLowConfidence, "identify", "resolve", "no match above threshold", nil),
	).WithValue(entry, bestScore)
}
