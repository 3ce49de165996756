package batch

import (
	"context"
	"strings"

	"pitchdna/internal/records"
	"pitchdna/internal/resolution"
	"pitchdna/internal/services"
)

// Processor resolves one row. Process must not retain row after returning
// and must not write to the table; the runner applies the outcome.
type Processor interface {
	Name() string
	// Columns lists the output columns the processor owns. They are cleared
	// on every processed row before the outcome is written.
	Columns() []string
	Process(ctx context.Context, row Row) Outcome
}

// Row is a read-only view of one input row.
type Row struct {
	Index int
	table *records.Table
}

// Get returns the trimmed cell for column.
func (r Row) Get(column string) string {
	return r.table.Get(r.Index, column)
}

// NewRow exposes a table row to a processor outside a run.
func NewRow(table *records.Table, index int) Row {
	return Row{Index: index, table: table}
}

// Outcome is what a processor produced for one row.
type Outcome struct {
	Cells  map[string]string
	Status resolution.Status
	Err    error
}

// Kind returns the error kind label, empty for a clean resolution.
func (o Outcome) Kind() string {
	return services.KindOf(o.Err)
}

// Label is the value written to the status column: the status for found
// rows, the error kind otherwise.
func (o Outcome) Label() string {
	if o.Status == resolution.StatusResolved || o.Status == resolution.StatusAmbiguous {
		return string(o.Status)
	}
	if kind := o.Kind(); kind != "" {
		return kind
	}
	return string(resolution.StatusUnresolved)
}

// FromResult builds an outcome from a resolver result.
func FromResult[T any](res resolution.Result[T], cells map[string]string) Outcome {
	return Outcome{Cells: cells, Status: res.Status, Err: res.Err}
}

// Failed builds an unresolved outcome for err with no output cells.
func Failed(err error) Outcome {
	return Outcome{Status: resolution.StatusUnresolved, Err: err}
}

// StatusColumn names the per-row status column of a stage.
func StatusColumn(stage string) string {
	return strings.TrimSpace(stage) + "_status"
}
