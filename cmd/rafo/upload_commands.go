package main

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alex-berlin-tv/rafo/internal/daemonrun"
	"github.com/alex-berlin-tv/rafo/internal/store"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

const airLayout = "2006-01-02 15:04"

func newUploadCommand(ctx *commandContext) *cobra.Command {
	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "Manage uploads",
	}
	uploadCmd.AddCommand(newUploadAddCommand(ctx))
	uploadCmd.AddCommand(newUploadShowCommand(ctx))
	uploadCmd.AddCommand(newUploadListCommand(ctx))
	uploadCmd.AddCommand(newUploadResetCommand(ctx))
	return uploadCmd
}

func newUploadAddCommand(ctx *commandContext) *cobra.Command {
	var (
		title       string
		author      string
		description string
		showID      int64
		medium      string
		airAt       string
		audioFile   string
		coverFile   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new upload",
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := ctx.ensureComponents(cmd.Context())
			if err != nil {
				return err
			}
			m, err := upload.ParseMedium(medium)
			if err != nil {
				return err
			}
			u := upload.Upload{
				Title:       title,
				Author:      author,
				Description: description,
				ShowID:      showID,
				Medium:      m,
			}
			if strings.TrimSpace(airAt) != "" {
				parsed, err := time.ParseInLocation(airLayout, strings.TrimSpace(airAt), components.Config.Location())
				if err != nil {
					return fmt.Errorf("invalid air time %q (want %s)", airAt, airLayout)
				}
				u.AirAt = parsed
			}

			created, err := components.Store.CreateUpload(cmd.Context(), u)
			if err != nil {
				return err
			}
			if audioFile != "" {
				key, err := storeUploadFile(cmd.Context(), components, created.ID, "original", audioFile)
				if err != nil {
					return err
				}
				if err := components.Store.SetOriginalKey(cmd.Context(), created.ID, key); err != nil {
					return err
				}
			}
			if coverFile != "" {
				key, err := storeUploadFile(cmd.Context(), components, created.ID, "cover", coverFile)
				if err != nil {
					return err
				}
				if err := components.Store.SetCoverKey(cmd.Context(), created.ID, key); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created upload %d\n", created.ID)
			fmt.Fprintf(out, "Reference: %s\n", upload.ReferenceNumber(*created, components.Config.Location()))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title of the upload")
	cmd.Flags().StringVar(&author, "author", "", "Producer name")
	cmd.Flags().StringVar(&description, "description", "", "Description shown on the platform")
	cmd.Flags().Int64Var(&showID, "show", 0, "Show the upload belongs to")
	cmd.Flags().StringVar(&medium, "medium", string(upload.MediumRadio), "Medium: radio, podcast, tv or news")
	cmd.Flags().StringVar(&airAt, "air", "", "Scheduled air time ("+airLayout+")")
	cmd.Flags().StringVar(&audioFile, "file", "", "Original audio file")
	cmd.Flags().StringVar(&coverFile, "cover", "", "Cover image file")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func storeUploadFile(ctx context.Context, components *daemonrun.Components, id int64, name, src string) (string, error) {
	key := upload.StorageKey(id, name+strings.ToLower(filepath.Ext(src)))
	if err := components.Media.Put(ctx, key, src); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	return key, nil
}

func newUploadShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <upload-id>",
		Short: "Show the details of an upload",
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
			u, err := components.Store.GetUpload(cmd.Context(), id)
			if err != nil {
				return err
			}
			loc := components.Config.Location()
			rows := [][]string{
				{"Reference", upload.ReferenceNumber(*u, loc)},
				{"Title", u.Title},
				{"Author", u.Author},
				{"Medium", string(u.Medium)},
				{"Show", formatShowID(u.ShowID)},
				{"Air time", formatAirTime(u.AirAt, loc)},
				{"Duration", formatDuration(u.Duration)},
				{"Waveform", u.WaveformStatus.Label()},
				{"Optimization", u.OptimizationStatus.Label()},
				{"Export", u.ExportStatus.Label()},
				{"Platform ID", formatPlatformID(u.PlatformID)},
				{"Original", u.OriginalKey},
				{"Optimized", u.OptimizedKey},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{{Header: "Field"}, {Header: "Value"}}, rows))
			if u.OptimizationLog != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nOptimization log:\n%s\n", strings.TrimRight(u.OptimizationLog, "\n"))
			}
			return nil
		},
	}
}

func newUploadListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := ctx.ensureComponents(cmd.Context())
			if err != nil {
				return err
			}
			uploads, err := components.Store.ListUploads(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(uploads) == 0 {
				fmt.Fprintln(out, "No uploads")
				return nil
			}
			loc := components.Config.Location()
			rows := make([][]string, 0, len(uploads))
			for _, u := range uploads {
				rows = append(rows, []string{
					strconv.FormatInt(u.ID, 10),
					u.Title,
					string(u.Medium),
					formatAirTime(u.AirAt, loc),
					u.OptimizationStatus.Label(),
					u.ExportStatus.Label(),
					formatPlatformID(u.PlatformID),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{Header: "ID", Right: true},
				{Header: "Title"},
				{Header: "Medium"},
				{Header: "Air time"},
				{Header: "Optimization"},
				{Header: "Export"},
				{Header: "Platform", Right: true},
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of uploads to list")
	return cmd
}

func newUploadResetCommand(ctx *commandContext) *cobra.Command {
	var pipeline string

	cmd := &cobra.Command{
		Use:   "reset <upload-id>",
		Short: "Return an errored pipeline of an upload to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUploadID(args[0])
			if err != nil {
				return err
			}
			p := store.Pipeline(strings.ToLower(strings.TrimSpace(pipeline)))
			switch p {
			case store.PipelineOptimization, store.PipelineWaveform, store.PipelineExport:
			default:
				return fmt.Errorf("unknown pipeline %q (want optimization, waveform or export)", pipeline)
			}
			components, err := ctx.ensureComponents(cmd.Context())
			if err != nil {
				return err
			}
			if err := components.Store.ResetPipeline(cmd.Context(), id, p); err != nil {
				return fmt.Errorf("reset %s of upload %d: %w", p, id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Upload %d %s reset to pending\n", id, p)
			return nil
		},
	}
	cmd.Flags().StringVar(&pipeline, "pipeline", string(store.PipelineOptimization), "Pipeline to reset: optimization, waveform or export")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Manage shows",
	}
	showCmd.AddCommand(newShowAddCommand(ctx))
	showCmd.AddCommand(newShowListCommand(ctx))
	return showCmd
}

func newShowAddCommand(ctx *commandContext) *cobra.Command {
	var (
		name        string
		description string
		platformID  int
		coverFile   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a show",
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := ctx.ensureComponents(cmd.Context())
			if err != nil {
				return err
			}
			show := upload.Show{Name: name, Description: description, PlatformShowID: platformID}
			if coverFile != "" {
				slug := upload.NormalizeFilename(name)
				if slug == "" {
					return fmt.Errorf("show name %q yields an empty cover key", name)
				}
				key := path.Join("shows", slug, "cover"+strings.ToLower(filepath.Ext(coverFile)))
				if err := components.Media.Put(cmd.Context(), key, coverFile); err != nil {
					return fmt.Errorf("store cover: %w", err)
				}
				show.CoverKey = key
			}
			created, err := components.Store.CreateShow(cmd.Context(), show)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created show %d\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Show name")
	cmd.Flags().StringVar(&description, "description", "", "Fallback description for uploads")
	cmd.Flags().IntVar(&platformID, "platform-show", 0, "Show ID on the media platform")
	cmd.Flags().StringVar(&coverFile, "cover", "", "Cover image file")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newShowListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List shows",
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := ctx.ensureComponents(cmd.Context())
			if err != nil {
				return err
			}
			shows, err := components.Store.ListShows(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(shows) == 0 {
				fmt.Fprintln(out, "No shows")
				return nil
			}
			rows := make([][]string, 0, len(shows))
			for _, show := range shows {
				rows = append(rows, []string{
					strconv.FormatInt(show.ID, 10),
					show.Name,
					formatPlatformID(show.PlatformShowID),
					yesNo(show.CoverKey != ""),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{Header: "ID", Right: true},
				{Header: "Name"},
				{Header: "Platform", Right: true},
				{Header: "Cover"},
			}, rows))
			return nil
		},
	}
}

func formatShowID(id int64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}

func formatPlatformID(id int) string {
	if id == 0 {
		return "-"
	}
	return strconv.Itoa(id)
}

func formatAirTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format(airLayout)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
