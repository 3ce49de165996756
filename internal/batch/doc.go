// Package batch runs a pipeline stage over every row of a record table.
//
// The Runner dispatches rows to one or more workers, catches per-row panics
// and errors so a single record never aborts the run, and applies outcomes
// strictly in row order from a single goroutine. Every CheckpointEvery
// applied rows, and once at the end, the whole table is flushed to the
// checkpoint store. Runs can start from any offset; rows before it are
// never read for processing or rewritten.
package batch
