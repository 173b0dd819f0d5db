package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alex-berlin-tv/rafo/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, logger)
		},
	}
}

func newOptimizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize <upload-id>",
		Short: "Optimize the original audio of an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUploadID(args[0])
			if err != nil {
				return err
			}
			components, err := ctx.ensureComponents(cmd.Context())
			if err != nil {
				return err
			}
			status, err := components.Runner.Optimize(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("optimize upload %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Upload %d optimization: %s\n", id, status.Label())
			return nil
		},
	}
}

func newWaveformCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "waveform <upload-id>",
		Short: "Render the waveform image of an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUploadID(args[0])
			if err != nil {
				return err
			}
			components, err := ctx.ensureComponents(cmd.Context())
			if err != nil {
				return err
			}
			status, err := components.Runner.Waveform(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("render waveform for upload %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Upload %d waveform: %s\n", id, status.Label())
			return nil
		},
	}
}
