package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pitchdna/internal/logging"
	"pitchdna/internal/stageexec"
)

type stageFlags struct {
	input      string
	output     string
	reference  string
	start      int
	resume     bool
	workers    int
	jsonOutput bool
	noProgress bool
}

func newStageCommand(ctx *commandContext, name, short string) *cobra.Command {
	var flags stageFlags

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd, ctx, name, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "Input CSV file")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output CSV file (default <input>."+name+".csv)")
	cmd.Flags().StringVar(&flags.reference, "reference", "", "Player reference CSV (overrides paths.reference)")
	cmd.Flags().IntVar(&flags.start, "start", 0, "First row to process; earlier rows keep their checkpointed values")
	cmd.Flags().BoolVar(&flags.resume, "resume", false, "Continue from the existing checkpoint")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Concurrent rows (overrides batch.workers)")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Print the run summary as JSON")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func runStage(cmd *cobra.Command, ctx *commandContext, name string, flags stageFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	input := strings.TrimSpace(flags.input)
	output := strings.TrimSpace(flags.output)
	if input == "" && !((flags.resume || flags.start > 0) && output != "") {
		return fmt.Errorf("--input is required")
	}
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + name + ".csv"
	}
	workers := cfg.Batch.Workers
	if flags.workers > 0 {
		workers = flags.workers
	}

	runID := uuid.NewString()
	logger, logPath, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return err
	}

	built, err := buildStage(name, stageDeps{cfg: cfg, logger: logger, referencePath: flags.reference})
	if err != nil {
		return err
	}

	progress := newRowProgress(cmd.ErrOrStderr(), name, !flags.noProgress && !flags.jsonOutput)
	result, runErr := stageexec.Run(cmd.Context(), stageexec.Options{
		Logger:           logger,
		Handler:          built.handler,
		RunID:            runID,
		InputPath:        input,
		OutputPath:       output,
		CheckpointPath:   cfg.CheckpointPath(output),
		CheckpointFormat: cfg.Batch.CheckpointFormat,
		CheckpointEvery:  cfg.Batch.CheckpointEvery,
		Workers:          workers,
		Start:            flags.start,
		StartSet:         cmd.Flags().Changed("start"),
		Resume:           flags.resume,
		OnProgress:       progress.update,
	})
	progress.finish()
	if result.Summary.Stage == "" {
		return runErr
	}

	report := runReport{Result: result, LogPath: logPath}
	if built.cache != nil {
		stats := built.cache.Stats()
		report.Cache = &stats
	}
	if flags.jsonOutput {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		writeSummary(cmd.OutOrStdout(), report)
	}
	return runErr
}
