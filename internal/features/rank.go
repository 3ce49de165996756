package features

import (
	"math"

	"pitchdna/internal/resolution"
	"pitchdna/internal/services"
)

// Distance is the Euclidean distance between a and b over dims. Both
// vectors must have every dimension present.
func Distance(a, b Vector, dims []string) float64 {
	var sum float64
	for _, name := range dims {
		x, _ := a.Get(name)
		y, _ := b.Get(name)
		d := x - y
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Rank picks the candidate nearest to query over the dimensions present in
// query. Candidates missing any of those dimensions are not considered. The
// returned value indexes candidates; ties go to the earliest index.
// Confidence is 1/(1+distance).
func Rank(query Vector, candidates []Vector) resolution.Result[int] {
	dims := query.Present()
	if len(dims) == 0 {
		return resolution.Unresolved[int](services.Wrap(services.ErrNoFeatures, "", "rank", "no comparable features", nil))
	}
	best, bestDist := -1, math.Inf(1)
	for i, candidate := range candidates {
		if !candidate.Has(dims) {
			continue
		}
		if d := Distance(query, candidate, dims); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return resolution.Unresolved[int](services.Wrap(services.ErrNoCandidate, "", "rank", "no fully comparable candidate", nil))
	}
	return resolution.Resolved(best, 1/(1+bestDist))
}
