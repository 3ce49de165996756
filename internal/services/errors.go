package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared by the resolvers, the batch runner and the catalog
// clients. Wrap tags an error with one of these so the runner can classify
// the outcome without inspecting messages.
var (
	ErrMissingInput      = errors.New("missing input")
	ErrFetchFailure      = errors.New("fetch failure")
	ErrNoCandidate       = errors.New("no candidate")
	ErrLowConfidence     = errors.New("low confidence")
	ErrAmbiguousFallback = errors.New("ambiguous fallback")
	ErrNoFeatures        = errors.New("no comparable features")
	ErrConfiguration     = errors.New("configuration error")
)

// Kind labels written into per-record status columns and run summaries.
const (
	KindNone              = ""
	KindMissingInput      = "missing_input"
	KindFetchFailure      = "fetch_failure"
	KindNoCandidate       = "no_candidate"
	KindLowConfidence     = "low_confidence"
	KindAmbiguousFallback = "ambiguous_fallback"
	KindNoFeatures        = "no_features"
	KindConfiguration     = "configuration"
	KindInternal          = "internal"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFetchFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf maps an error to its status label. Unknown errors are reported as
// internal so they stand out in the run summary.
func KindOf(err error) string {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingInput):
		return KindMissingInput
	case errors.Is(err, ErrFetchFailure):
		return KindFetchFailure
	case errors.Is(err, ErrNoCandidate):
		return KindNoCandidate
	case errors.Is(err, ErrLowConfidence):
		return KindLowConfidence
	case errors.Is(err, ErrAmbiguousFallback):
		return KindAmbiguousFallback
	case errors.Is(err, ErrNoFeatures):
		return KindNoFeatures
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindInternal
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "resolution failure"
	}
	return strings.Join(parts, ": ")
}
