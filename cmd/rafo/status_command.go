package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/alex-berlin-tv/rafo/internal/api"
	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server, dependency and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := ctx.ensureComponents(cmd.Context())
			if err != nil {
				return err
			}
			cfg := components.Config

			dependencies := preflight.CheckSystemDeps(cfg)
			checks := preflight.RunAll(cmd.Context(), cfg)
			names := make([]string, 0, len(components.Pingers))
			for name := range components.Pingers {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				checks = append(checks, preflight.CheckPing(cmd.Context(), name, components.Pingers[name]))
			}
			counts, err := components.Store.StatusSummary(cmd.Context())
			if err != nil {
				return fmt.Errorf("load status summary: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(api.Status{
					Pipelines:    api.FromStatusCounts(counts),
					Dependencies: api.FromDependencies(dependencies),
					Checks:       api.FromChecks(checks),
				})
			}

			colorize := shouldColorize(out)
			var lines []string
			lines = append(lines, renderSectionHeader("Server", colorize)...)
			lines = append(lines, serverStatusLine(cfg, colorize))
			lines = append(lines, renderStatusLine("Export", exportKind(cfg), exportDetail(cfg), colorize))
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(dependencies, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			lines = append(lines, checkLines(checks, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Pipelines", colorize)...)
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if len(counts) == 0 {
				fmt.Fprintln(out, renderStatusLine("Uploads", statusInfo, "none", colorize))
				return nil
			}
			columns, rows := pipelineRows(counts)
			fmt.Fprintln(out, renderTable(columns, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	return cmd
}

// serverStatusLine probes the server lock. A lock that can be taken means no
// server is running.
func serverStatusLine(cfg *config.Config, colorize bool) string {
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return renderStatusLine("Server", statusWarn, err.Error(), colorize)
	}
	if locked {
		_ = lock.Unlock()
		return renderStatusLine("Server", statusInfo, "Not running", colorize)
	}
	return renderStatusLine("Server", statusOK, "Running on "+cfg.Paths.APIBind, colorize)
}

func exportKind(cfg *config.Config) statusKind {
	if cfg.ValidateExportCredentials() != nil {
		return statusWarn
	}
	return statusOK
}

func exportDetail(cfg *config.Config) string {
	if err := cfg.ValidateExportCredentials(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("Domain %d", cfg.Export.DomainID)
}
