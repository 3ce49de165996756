package services

import "context"

type contextKey string

const (
	recordIndexKey contextKey = "record_index"
	stageKey       contextKey = "stage"
	runIDKey       contextKey = "run_id"
)

// WithRecordIndex annotates context with the zero-based row being resolved.
func WithRecordIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, recordIndexKey, index)
}

// RecordIndexFromContext extracts the row index if present.
func RecordIndexFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(recordIndexKey).(int)
	return v, ok
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with the batch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
