package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pitchdna/internal/batch"
	"pitchdna/internal/checkpoint"
	"pitchdna/internal/logging"
	"pitchdna/internal/records"
	"pitchdna/internal/services"
	"pitchdna/internal/stage"
)

// Options controls one stage run over a record file.
type Options struct {
	Logger  *slog.Logger
	Handler stage.Handler
	RunID   string

	InputPath  string
	OutputPath string
	// CheckpointPath defaults to OutputPath. With the sqlite format it must
	// differ from OutputPath.
	CheckpointPath   string
	CheckpointFormat string
	CheckpointEvery  int
	Workers          int

	// Start is the first row to process. A positive Start, or Resume,
	// continues from an existing checkpoint so rows before Start keep their
	// checkpointed values. Without an explicit Start, Resume picks the first
	// checkpoint row that has no status yet.
	Start    int
	StartSet bool
	Resume   bool

	OnProgress func(done, total int)
}

// Result describes a finished or interrupted run.
type Result struct {
	RunID      string        `json:"run_id"`
	Input      string        `json:"input"`
	Output     string        `json:"output"`
	Checkpoint string        `json:"checkpoint"`
	Resumed    bool          `json:"resumed"`
	Summary    batch.Summary `json:"summary"`
}

// Run executes a stage: it checks stage health, locks the checkpoint, restores
// a previous checkpoint on resume, drives the batch runner, and writes the
// output file. An interrupted run returns the partial result with ctx.Err().
func Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Handler == nil {
		return Result{}, errors.New("stage handler unavailable")
	}
	if strings.TrimSpace(opts.OutputPath) == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "stageexec", "run", "output path is required", nil)
	}
	name := opts.Handler.Name()
	checkpointPath := opts.CheckpointPath
	if strings.TrimSpace(checkpointPath) == "" {
		checkpointPath = opts.OutputPath
	}
	result := Result{RunID: opts.RunID, Input: opts.InputPath, Output: opts.OutputPath, Checkpoint: checkpointPath}

	stageCtx := services.WithStage(ctx, name)
	if opts.RunID != "" {
		stageCtx = services.WithRunID(stageCtx, opts.RunID)
	}
	logger := logging.WithContext(stageCtx, logging.NewComponentLogger(opts.Logger, "stageexec"))

	if health := opts.Handler.HealthCheck(stageCtx); !health.Ready {
		return result, services.Wrap(services.ErrConfiguration, name, "health check", health.Detail, nil)
	}

	if err := os.MkdirAll(filepath.Dir(checkpointPath), 0o755); err != nil {
		return result, fmt.Errorf("ensure checkpoint directory: %w", err)
	}
	lock, err := checkpoint.AcquireLock(checkpointPath)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Debug("checkpoint lock release failed", logging.Error(err))
		}
	}()

	store, err := checkpoint.Open(opts.CheckpointFormat, checkpointPath)
	if err != nil {
		return result, err
	}
	defer store.Close()

	table, start, resumed, err := loadTable(stageCtx, opts, store, batch.StatusColumn(name))
	if err != nil {
		return result, err
	}
	result.Resumed = resumed

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("input", opts.InputPath),
		logging.String("output", opts.OutputPath),
		logging.Int("rows", table.Len()),
		logging.Int("start", start),
		logging.Bool("resumed", resumed),
	)

	runner := batch.New(opts.Handler, store, batch.Options{
		CheckpointEvery: opts.CheckpointEvery,
		Workers:         opts.Workers,
		Logger:          logger,
		OnProgress:      opts.OnProgress,
	})
	summary, runErr := runner.Run(stageCtx, table, start)
	result.Summary = summary

	if checkpointPath != opts.OutputPath {
		if err := checkpoint.NewCSVStore(opts.OutputPath).Flush(context.WithoutCancel(stageCtx), table); err != nil {
			return result, fmt.Errorf("write output: %w", err)
		}
	}
	if runErr != nil {
		return result, handleFailure(logger, name, summary, runErr)
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("resolved", summary.Statuses["resolved"]),
		logging.Int("ambiguous", summary.Statuses["ambiguous"]),
		logging.Int("unresolved", summary.Statuses["unresolved"]),
		logging.Int("flush_failures", summary.FlushFailures),
	)
	return result, nil
}

// loadTable returns the working table and the first row to process.
func loadTable(ctx context.Context, opts Options, store checkpoint.Store, statusCol string) (*records.Table, int, bool, error) {
	explicit := opts.StartSet || opts.Start > 0
	if opts.Resume || opts.Start > 0 {
		table, ok, err := store.Load(ctx)
		if err != nil {
			return nil, 0, false, fmt.Errorf("load checkpoint: %w", err)
		}
		if ok {
			if !explicit {
				return table, ResumeOffset(table, statusCol), true, nil
			}
			if err := checkStart(opts.Start, table); err != nil {
				return nil, 0, false, err
			}
			return table, opts.Start, true, nil
		}
	}
	if strings.TrimSpace(opts.InputPath) == "" {
		return nil, 0, false, services.Wrap(services.ErrConfiguration, "stageexec", "run", "input path is required", nil)
	}
	table, err := records.Load(opts.InputPath)
	if err != nil {
		return nil, 0, false, err
	}
	if err := checkStart(opts.Start, table); err != nil {
		return nil, 0, false, err
	}
	return table, opts.Start, false, nil
}

func checkStart(start int, table *records.Table) error {
	if start < 0 || start > table.Len() {
		return services.Wrap(services.ErrConfiguration, "stageexec", "run",
			fmt.Sprintf("start %d outside [0, %d]", start, table.Len()), nil)
	}
	return nil
}

// ResumeOffset returns the first row without a status in statusCol, or the
// table length when every row has one.
func ResumeOffset(table *records.Table, statusCol string) int {
	if !table.HasColumn(statusCol) {
		return 0
	}
	for i := 0; i < table.Len(); i++ {
		if table.Get(i, statusCol) == "" {
			return i
		}
	}
	return table.Len()
}

func handleFailure(logger *slog.Logger, stageName string, summary batch.Summary, stageErr error) error {
	if errors.Is(stageErr, context.Canceled) || errors.Is(stageErr, context.DeadlineExceeded) {
		logging.WarnWithContext(logger, "stage interrupted", "stage_interrupted",
			logging.Int("next_offset", summary.NextOffset),
			logging.String(logging.FieldErrorHint, "rerun with --resume to continue"),
			logging.String(logging.FieldImpact, "rows after next_offset were not processed"),
		)
		return stageErr
	}
	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String("failed_stage", stageName),
		logging.Error(stageErr),
	)
	return stageErr
}
