package main

import (
	"github.com/spf13/cobra"

	"pitchdna/internal/stage"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "pitchdna",
		Short:         "Resolve pitch records to players, games, and video clips",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newStageCommand(ctx, stage.NameIdentify, "Map player names to player ids"))
	rootCmd.AddCommand(newStageCommand(ctx, stage.NameLocate, "Find the game and pitch number of each described pitch"))
	rootCmd.AddCommand(newStageCommand(ctx, stage.NameLink, "Attach play ids and video links to located pitches"))
	rootCmd.AddCommand(newStageCommand(ctx, stage.NameVerify, "Check that each linked play was thrown by the named pitcher"))
	rootCmd.AddCommand(newStageCommand(ctx, stage.NameCheck, "Check that each linked clip still serves a video"))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
