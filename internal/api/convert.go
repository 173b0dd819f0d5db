package api

import (
	"context"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/deps"
	"github.com/alex-berlin-tv/rafo/internal/preflight"
	"github.com/alex-berlin-tv/rafo/internal/store"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

// Linker resolves storage keys to public URLs.
type Linker interface {
	URL(ctx context.Context, key string) (string, error)
}

// FromUpload converts an upload record to its API representation. Files
// whose URL cannot be resolved are omitted.
func FromUpload(ctx context.Context, u *upload.Upload, loc *time.Location, links Linker) Upload {
	if u == nil {
		return Upload{}
	}
	if loc == nil {
		loc = time.UTC
	}
	dto := Upload{
		ID:              u.ID,
		Title:           u.Title,
		Author:          u.Author,
		Description:     u.Description,
		ShowID:          u.ShowID,
		Medium:          string(u.Medium),
		ReferenceNumber: upload.ReferenceNumber(*u, loc),
		DurationSeconds: u.Duration.Seconds(),
		PlatformID:      u.PlatformID,
		OptimizationLog: u.OptimizationLog,
		Pipelines: Pipelines{
			Waveform:     u.WaveformStatus.Label(),
			Optimization: u.OptimizationStatus.Label(),
			Export:       u.ExportStatus.Label(),
		},
	}
	if u.HasAirDate() {
		dto.AirAt = u.AirAt.In(loc).Format(dateTimeFormat)
	}
	if !u.CreatedAt.IsZero() {
		dto.CreatedAt = u.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !u.UpdatedAt.IsZero() {
		dto.UpdatedAt = u.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if links != nil {
		dto.Files = Files{
			Original:  link(ctx, links, u.OriginalKey),
			Optimized: link(ctx, links, u.OptimizedKey),
			Waveform:  link(ctx, links, u.WaveformKey),
			Cover:     link(ctx, links, u.CoverKey),
		}
	}
	return dto
}

func link(ctx context.Context, links Linker, key string) string {
	if key == "" {
		return ""
	}
	url, err := links.URL(ctx, key)
	if err != nil {
		return ""
	}
	return url
}

// FromStatusCounts converts the store summary.
func FromStatusCounts(counts []store.StatusCount) []PipelineCount {
	out := make([]PipelineCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, PipelineCount{Pipeline: string(c.Pipeline), Status: c.Status, Count: c.Count})
	}
	return out
}

// FromDependencies converts binary checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, dep := range statuses {
		out = append(out, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Version:     dep.Version,
			Detail:      dep.Detail,
		})
	}
	return out
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}
