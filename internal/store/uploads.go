package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

// CreateUpload inserts a new upload with all pipelines pending.
func (s *Store) CreateUpload(ctx context.Context, u upload.Upload) (*upload.Upload, error) {
	if strings.TrimSpace(u.Title) == "" {
		return nil, errors.New("create upload: title is required")
	}
	if _, err := upload.ParseMedium(string(u.Medium)); err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	var airAt any
	if !u.AirAt.IsZero() {
		airAt = formatTime(u.AirAt)
	}

	id, err := s.insert(ctx,
		`INSERT INTO uploads (
            title, author, description, show_id, medium, air_at, created_at, updated_at,
            original_key, cover_key
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(u.Title),
		u.Author,
		u.Description,
		u.ShowID,
		string(u.Medium),
		airAt,
		formatTime(u.CreatedAt),
		formatTime(now),
		u.OriginalKey,
		u.CoverKey,
	)
	if err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}
	return s.GetUpload(ctx, id)
}

// GetUpload loads an upload by identifier.
func (s *Store) GetUpload(ctx context.Context, id int64) (*upload.Upload, error) {
	var row uploadRow
	err := s.db.GetContext(ensureContext(ctx), &row, `SELECT `+uploadColumns+` FROM uploads WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get upload", fmt.Sprintf("upload %d", id), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrRemoteTransport, "store", "get upload", "", err)
	}
	return row.toUpload(), nil
}

// ListUploads returns the most recent uploads first. A limit <= 0 returns all.
func (s *Store) ListUploads(ctx context.Context, limit int) ([]upload.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var rows []uploadRow
	if err := s.db.SelectContext(ensureContext(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	uploads := make([]upload.Upload, 0, len(rows))
	for _, row := range rows {
		uploads = append(uploads, *row.toUpload())
	}
	return uploads, nil
}

// SetOriginalKey records where the submitted audio file is stored.
func (s *Store) SetOriginalKey(ctx context.Context, id int64, key string) error {
	return s.updateColumn(ctx, id, "original_key", key)
}

// SetCoverKey records the upload's own cover image.
func (s *Store) SetCoverKey(ctx context.Context, id int64, key string) error {
	return s.updateColumn(ctx, id, "cover_key", key)
}

func (s *Store) updateColumn(ctx context.Context, id int64, column, value string) error {
	affected, err := s.execAffected(ctx,
		`UPDATE uploads SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		value, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "update "+column, fmt.Sprintf("upload %d", id), nil)
	}
	return nil
}

// StatusSummary counts uploads per pipeline and status.
func (s *Store) StatusSummary(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := s.db.SelectContext(ensureContext(ctx), &counts, `
        SELECT 'waveform' AS pipeline, waveform_status AS status, COUNT(*) AS count FROM uploads GROUP BY waveform_status
        UNION ALL
        SELECT 'optimization', optimization_status, COUNT(*) FROM uploads GROUP BY optimization_status
        UNION ALL
        SELECT 'export', export_status, COUNT(*) FROM uploads GROUP BY export_status
        ORDER BY 1, 2`)
	if err != nil {
		return nil, fmt.Errorf("status summary: %w", err)
	}
	return counts, nil
}
