package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

// CreateShow inserts a show and returns the stored record.
func (s *Store) CreateShow(ctx context.Context, show upload.Show) (*upload.Show, error) {
	if strings.TrimSpace(show.Name) == "" {
		return nil, errors.New("create show: name is required")
	}
	id, err := s.insert(ctx,
		`INSERT INTO shows (name, description, platform_show_id, cover_key) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(show.Name), show.Description, show.PlatformShowID, show.CoverKey,
	)
	if err != nil {
		return nil, fmt.Errorf("insert show: %w", err)
	}
	return s.GetShow(ctx, id)
}

// GetShow loads a show by identifier.
func (s *Store) GetShow(ctx context.Context, id int64) (*upload.Show, error) {
	var row showRow
	err := s.db.GetContext(ensureContext(ctx), &row,
		`SELECT id, name, description, platform_show_id, cover_key FROM shows WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get show", fmt.Sprintf("show %d", id), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrRemoteTransport, "store", "get show", "", err)
	}
	return row.toShow(), nil
}

// ListShows returns all shows ordered by name.
func (s *Store) ListShows(ctx context.Context) ([]upload.Show, error) {
	var rows []showRow
	if err := s.db.SelectContext(ensureContext(ctx), &rows,
		`SELECT id, name, description, platform_show_id, cover_key FROM shows ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("list shows: %w", err)
	}
	shows := make([]upload.Show, 0, len(rows))
	for _, row := range rows {
		shows = append(shows, *row.toShow())
	}
	return shows, nil
}
