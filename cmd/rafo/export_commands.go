package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/alex-berlin-tv/rafo/internal/api"
	"github.com/alex-berlin-tv/rafo/internal/export"
	"github.com/alex-berlin-tv/rafo/internal/exportview"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "export <upload-id>",
		Short: "Publish an upload to the media platform",
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
			if components.Exporter == nil {
				if err := components.Config.ValidateExportCredentials(); err != nil {
					return fmt.Errorf("export unavailable: %w", err)
				}
				return fmt.Errorf("export unavailable")
			}

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			events := components.Exporter.Start(runCtx, id)
			board := exportview.NewBoard()
			out := cmd.OutOrStdout()
			if !plain && isTerminal(out) {
				if err := runExportTUI(id, events, board, cancel); err != nil {
					return err
				}
			} else {
				for e := range events {
					board.Apply(e)
					fmt.Fprintln(out, formatEventLine(e))
				}
				board.Close()
			}
			return exportResult(out, board)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print one line per event instead of the live view")

	cmd.AddCommand(newExportResetCommand(ctx))
	return cmd
}

func newExportResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <upload-id>",
		Short: "Clear the platform ID so the upload can be exported again",
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
			if err := components.Store.ResetExport(cmd.Context(), id); err != nil {
				return fmt.Errorf("reset export of upload %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Upload %d export reset\n", id)
			return nil
		},
	}
}

func newExportLinkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export-link <upload-id>",
		Short: "Print a time limited link that streams the export of an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUploadID(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			token, err := api.IssueLinkToken(cfg.Auth.JWTSecret, id, cfg.LinkTTL(), time.Now())
			if err != nil {
				return err
			}
			base := strings.TrimRight(cfg.Paths.PublicURL, "/")
			fmt.Fprintf(cmd.OutOrStdout(), "%s/api/uploads/%d/export?key=%s\n", base, id, token)
			return nil
		},
	}
}

// exportResult prints the copyable values and turns a failed board into an
// error exit.
func exportResult(out io.Writer, board *exportview.Board) error {
	for _, pair := range board.Copyable() {
		fmt.Fprintf(out, "%s: %s\n", pair.Label, pair.Value)
	}
	if e, ok := board.Get(export.TargetFinalize); !ok || e.State == export.StateError || e.State == export.StateRunning {
		return fmt.Errorf("export did not complete")
	}
	return nil
}

func formatEventLine(e export.Event) string {
	line := fmt.Sprintf("[%-7s] %-16s %s", strings.ToUpper(string(e.State)), e.Target, e.Title)
	if e.Description != "" {
		line += ": " + e.Description
	}
	return line
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd())
}
