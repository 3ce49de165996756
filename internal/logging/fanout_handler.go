package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler forwards each record to every sink whose level admits it.
// The console sink and the run log file share one teeHandler.
type teeHandler struct {
	sinks []slog.Handler
}

// TeeHandler combines sinks into one handler. Nil sinks are dropped; a
// single remaining sink is returned as is.
func TeeHandler(sinks ...slog.Handler) slog.Handler {
	kept := make([]slog.Handler, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	switch len(kept) {
	case 0:
		return NoopHandler{}
	case 1:
		return kept[0]
	default:
		return &teeHandler{sinks: kept}
	}
}

// TeeLogger returns a logger that writes to base and to the extra sinks.
func TeeLogger(base *slog.Logger, sinks ...slog.Handler) *slog.Logger {
	if base != nil {
		sinks = append([]slog.Handler{base.Handler()}, sinks...)
	}
	return slog.New(TeeHandler(sinks...))
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range h.sinks {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle gives each sink its own clone of the record and joins their errors.
func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, sink := range h.sinks {
		if !sink.Enabled(ctx, record.Level) {
			continue
		}
		if err := sink.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(sink slog.Handler) slog.Handler { return sink.WithAttrs(attrs) })
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(sink slog.Handler) slog.Handler { return sink.WithGroup(name) })
}

func (h *teeHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, len(h.sinks))
	for i, sink := range h.sinks {
		next[i] = fn(sink)
	}
	return &teeHandler{sinks: next}
}
