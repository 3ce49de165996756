package resolution

import (
	"errors"

	"pitchdna/internal/services"
)

// Status is the tag of a Result.
type Status string

const (
	StatusResolved   Status = "resolved"
	StatusAmbiguous  Status = "ambiguous"
	StatusUnresolved Status = "unresolved"
)

// Result is the outcome of one resolver call. Exactly one of the three
// constructors produces it; callers switch on Status.
type Result[T any] struct {
	Status     Status
	Value      T
	Confidence float64
	Reason     string
	// Err carries the error kind for ambiguous and unresolved outcomes.
	Err error
}

// Resolved reports a unique answer.
func Resolved[T any](value T, confidence float64) Result[T] {
	return Result[T]{Status: StatusResolved, Value: value, Confidence: confidence}
}

// Ambiguous reports a best-guess answer that must stay distinguishable from a
// resolved one. kind should be one of the services sentinels.
func Ambiguous[T any](value T, confidence float64, kind error, reason string) Result[T] {
	if kind == nil {
		kind = services.ErrAmbiguousFallback
	}
	return Result[T]{Status: StatusAmbiguous, Value: value, Confidence: confidence, Reason: reason, Err: kind}
}

// Unresolved reports an explicit failure to resolve. err must wrap one of the
// services sentinels; its message becomes the reason.
func Unresolved[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unresolved")
	}
	return Result[T]{Status: StatusUnresolved, Reason: err.Error(), Err: err}
}

// Found reports whether the result carries a usable value.
func (r Result[T]) Found() bool {
	return r.Status == StatusResolved || r.Status == StatusAmbiguous
}

// Kind returns the status label for the error kind, empty when resolved.
func (r Result[T]) Kind() string {
	return services.KindOf(r.Err)
}

// WithValue returns a copy of an unresolved result that also carries a best
// guess for audit output. The status is unchanged.
func (r Result[T]) WithValue(value T, confidence float64) Result[T] {
	r.Value = value
	r.Confidence = confidence
	return r
}
