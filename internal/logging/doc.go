// Package logging assembles the structured slog loggers used by pitchdna.
//
// It owns the console and JSON handlers, picks between them for the "auto"
// format based on whether stderr is a terminal, tees every record into a
// per-run JSON file under the log directory, and prunes old run logs. The
// context helpers tag lines with the run ID, pipeline stage and row index
// carried on the context, so resolver code can log without threading those
// fields by hand. NewNop serves tests and wiring code that cannot fail.
package logging
