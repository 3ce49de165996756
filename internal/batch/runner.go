package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"pitchdna/internal/checkpoint"
	"pitchdna/internal/logging"
	"pitchdna/internal/records"
	"pitchdna/internal/resolution"
	"pitchdna/internal/services"
)

// DefaultCheckpointEvery is the flush cadence in applied rows.
const DefaultCheckpointEvery = 100

// Options tunes a Runner.
type Options struct {
	CheckpointEvery int
	Workers         int
	Logger          *slog.Logger
	// OnProgress is called from the applier after each applied row.
	OnProgress func(done, total int)
}

// Summary reports one run.
type Summary struct {
	Stage         string         `json:"stage"`
	Start         int            `json:"start"`
	Total         int            `json:"total"`
	Processed     int            `json:"processed"`
	Statuses      map[string]int `json:"statuses"`
	Kinds         map[string]int `json:"kinds"`
	Flushes       int            `json:"flushes"`
	FlushFailures int            `json:"flush_failures"`
	NextOffset    int            `json:"next_offset"`
	Elapsed       time.Duration  `json:"elapsed"`
}

// Runner drives a Processor over a table and checkpoints progress.
type Runner struct {
	proc   Processor
	store  checkpoint.Store
	opts   Options
	logger *slog.Logger
}

// New returns a runner. A nil store disables checkpointing.
func New(proc Processor, store checkpoint.Store, opts Options) *Runner {
	if opts.CheckpointEvery <= 0 {
		opts.CheckpointEvery = DefaultCheckpointEvery
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Runner{
		proc:   proc,
		store:  store,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "batch").With(logging.String(logging.FieldStage, proc.Name())),
	}
}

type result struct {
	index   int
	outcome Outcome
}

// Run processes rows [start, table.Len()). Rows before start are left
// untouched. Outcomes are applied in row order, so every checkpoint holds a
// completed prefix. On cancellation the rows finished so far are applied and
// flushed, and ctx.Err() is returned with the partial summary.
func (r *Runner) Run(ctx context.Context, table *records.Table, start int) (Summary, error) {
	began := time.Now()
	total := table.Len()
	summary := Summary{
		Stage:      r.proc.Name(),
		Start:      start,
		Total:      total,
		Statuses:   map[string]int{},
		Kinds:      map[string]int{},
		NextOffset: start,
	}
	if start < 0 || start > total {
		return summary, fmt.Errorf("start offset %d outside table of %d rows", start, total)
	}

	statusCol := StatusColumn(r.proc.Name())
	owned := slices.Concat(r.proc.Columns(), []string{statusCol})
	table.EnsureColumns(owned...)
	input := table.Clone()

	ctx = services.WithStage(ctx, r.proc.Name())
	r.logger.Info("batch run starting",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("start", start),
		logging.Int("rows", total-start),
		logging.Int("workers", r.opts.Workers),
	)

	jobs := make(chan int)
	results := make(chan result, r.opts.Workers)
	go func() {
		defer close(jobs)
		for i := start; i < total; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range r.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out := r.process(ctx, NewRow(input, i))
				if ctx.Err() != nil {
					// Incomplete work is dropped; the row is retried on resume.
					continue
				}
				results <- result{index: i, outcome: out}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	sampler := logging.NewProgressSampler(10)
	pending := make(map[int]Outcome)
	next := start
	sinceFlush := 0
	for res := range results {
		pending[res.index] = res.outcome
		for {
			out, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			r.apply(table, next, owned, statusCol, out)
			summary.Processed++
			summary.Statuses[string(statusOf(out))]++
			if kind := out.Kind(); kind != "" {
				summary.Kinds[kind]++
			}
			next++
			summary.NextOffset = next
			sinceFlush++
			if r.opts.OnProgress != nil {
				r.opts.OnProgress(next-start, total-start)
			}
			if sampler.ShouldLog(next-start, total-start) {
				r.logger.Info("batch progress",
					logging.String(logging.FieldEventType, "batch_progress"),
					logging.Int("done", next-start),
					logging.Int("rows", total-start),
					logging.Float64("percent", logging.Percent(next-start, total-start)),
				)
			}
			if sinceFlush >= r.opts.CheckpointEvery {
				r.flush(context.WithoutCancel(ctx), table, &summary)
				sinceFlush = 0
			}
		}
	}

	r.flush(context.WithoutCancel(ctx), table, &summary)
	summary.Elapsed = time.Since(began)

	if err := ctx.Err(); err != nil && next < total {
		logging.WarnWithContext(r.logger, "batch run interrupted", "batch_interrupted",
			logging.Int("next_offset", next),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("rerun with --start %d or --resume", next)),
			logging.String(logging.FieldImpact, "remaining rows were not processed"),
			logging.Error(err),
		)
		return summary, err
	}
	r.logger.Info("batch run complete",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("flushes", summary.Flushes),
		logging.Int("flush_failures", summary.FlushFailures),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (r *Runner) process(ctx context.Context, row Row) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = Failed(fmt.Errorf("%s row %d: panic: %v", r.proc.Name(), row.Index, rec))
		}
	}()
	ctx = services.WithRecordIndex(ctx, row.Index)
	out = r.proc.Process(ctx, row)
	if out.Status == "" {
		if out.Err != nil {
			out.Status = resolution.StatusUnresolved
		} else {
			out.Status = resolution.StatusResolved
		}
	}
	if out.Status == resolution.StatusUnresolved && out.Err != nil && !errors.Is(out.Err, services.ErrMissingInput) {
		logging.WithContext(ctx, r.logger).Debug("row unresolved",
			logging.String("kind", out.Kind()),
			logging.Error(out.Err),
		)
	}
	return out
}

func (r *Runner) apply(table *records.Table, index int, owned []string, statusCol string, out Outcome) {
	for _, col := range owned {
		table.Set(index, col, out.Cells[col])
	}
	for col, value := range out.Cells {
		table.Set(index, col, value)
	}
	table.Set(index, statusCol, out.Label())
}

func (r *Runner) flush(ctx context.Context, table *records.Table, summary *Summary) {
	if r.store == nil {
		return
	}
	summary.Flushes++
	if err := r.store.Flush(ctx, table); err != nil {
		summary.FlushFailures++
		logging.WarnWithContext(r.logger, "checkpoint flush failed", "checkpoint_flush_failed",
			logging.String("path", r.store.Path()),
			logging.Int("next_offset", summary.NextOffset),
			logging.String(logging.FieldErrorHint, "check disk space and permissions"),
			logging.String(logging.FieldImpact, "progress since the last checkpoint is held only in memory"),
			logging.Error(err),
		)
		return
	}
	r.logger.Debug("checkpoint flushed",
		logging.String("path", r.store.Path()),
		logging.Int("next_offset", summary.NextOffset),
	)
}

func statusOf(out Outcome) resolution.Status {
	if out.Status == "" {
		return resolution.StatusUnresolved
	}
	return out.Status
}
