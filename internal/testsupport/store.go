package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/store"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// MustCreateShow inserts a show with sensible defaults.
func MustCreateShow(t testing.TB, s *store.Store, show upload.Show) *upload.Show {
	t.Helper()

	if show.Name == "" {
		show.Name = "Morning Show"
	}
	created, err := s.CreateShow(context.Background(), show)
	if err != nil {
		t.Fatalf("CreateShow: %v", err)
	}
	return created
}

// MustCreateUpload inserts an upload linked to showID with sensible defaults.
func MustCreateUpload(t testing.TB, s *store.Store, u upload.Upload) *upload.Upload {
	t.Helper()

	if u.Title == "" {
		u.Title = "Test Upload"
	}
	if u.Medium == "" {
		u.Medium = upload.MediumRadio
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	}
	created, err := s.CreateUpload(context.Background(), u)
	if err != nil {
		t.Fatalf("CreateUpload: %v", err)
	}
	return created
}
