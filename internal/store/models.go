package store

import (
	"database/sql"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/upload"
)

const uploadColumns = `id, title, author, description, show_id, medium, air_at, created_at, updated_at,
    original_key, optimized_key, waveform_key, cover_key,
    waveform_status, optimization_status, export_status,
    optimization_log, duration_ms, platform_id`

type uploadRow struct {
	ID                 int64          `db:"id"`
	Title              string         `db:"title"`
	Author             string         `db:"author"`
	Description        string         `db:"description"`
	ShowID             int64          `db:"show_id"`
	Medium             string         `db:"medium"`
	AirAt              sql.NullString `db:"air_at"`
	CreatedAt          string         `db:"created_at"`
	UpdatedAt          string         `db:"updated_at"`
	OriginalKey        string         `db:"original_key"`
	OptimizedKey       string         `db:"optimized_key"`
	WaveformKey        string         `db:"waveform_key"`
	CoverKey           string         `db:"cover_key"`
	WaveformStatus     string         `db:"waveform_status"`
	OptimizationStatus string         `db:"optimization_status"`
	ExportStatus       string         `db:"export_status"`
	OptimizationLog    string         `db:"optimization_log"`
	DurationMS         int64          `db:"duration_ms"`
	PlatformID         int            `db:"platform_id"`
}

func (r uploadRow) toUpload() *upload.Upload {
	u := &upload.Upload{
		ID:                 r.ID,
		Title:              r.Title,
		Author:             r.Author,
		Description:        r.Description,
		ShowID:             r.ShowID,
		Medium:             upload.Medium(r.Medium),
		CreatedAt:          parseTime(r.CreatedAt),
		UpdatedAt:          parseTime(r.UpdatedAt),
		OriginalKey:        r.OriginalKey,
		OptimizedKey:       r.OptimizedKey,
		WaveformKey:        r.WaveformKey,
		CoverKey:           r.CoverKey,
		WaveformStatus:     statusOrPending(r.WaveformStatus),
		OptimizationStatus: statusOrPending(r.OptimizationStatus),
		ExportStatus:       statusOrPending(r.ExportStatus),
		OptimizationLog:    r.OptimizationLog,
		Duration:           time.Duration(r.DurationMS) * time.Millisecond,
		PlatformID:         r.PlatformID,
	}
	if r.AirAt.Valid {
		u.AirAt = parseTime(r.AirAt.String)
	}
	return u
}

func statusOrPending(value string) upload.Status {
	if status, ok := upload.ParseStatus(value); ok {
		return status
	}
	return upload.StatusPending
}

type showRow struct {
	ID             int64  `db:"id"`
	Name           string `db:"name"`
	Description    string `db:"description"`
	PlatformShowID int    `db:"platform_show_id"`
	CoverKey       string `db:"cover_key"`
}

func (r showRow) toShow() *upload.Show {
	return &upload.Show{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		PlatformShowID: r.PlatformShowID,
		CoverKey:       r.CoverKey,
	}
}

// Pipeline names the independent status columns of an upload.
type Pipeline string

const (
	PipelineWaveform     Pipeline = "waveform"
	PipelineOptimization Pipeline = "optimization"
	PipelineExport       Pipeline = "export"
)

func (p Pipeline) column() string {
	switch p {
	case PipelineWaveform:
		return "waveform_status"
	case PipelineOptimization:
		return "optimization_status"
	case PipelineExport:
		return "export_status"
	default:
		return ""
	}
}

// OptimizationResult is the persisted outcome of one optimizer run.
type OptimizationResult struct {
	Status       upload.Status
	Duration     time.Duration
	Log          string
	OptimizedKey string
}

// StatusCount is one bucket of the status summary.
type StatusCount struct {
	Pipeline Pipeline `db:"pipeline"`
	Status   string   `db:"status"`
	Count    int      `db:"count"`
}
