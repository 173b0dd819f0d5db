package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/store"
	"github.com/alex-berlin-tv/rafo/internal/testsupport"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

func TestCreateAndGetUpload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	show := testsupport.MustCreateShow(t, s, upload.Show{Name: "Kiezradio", Description: "Neighbourhood news", PlatformShowID: 77})
	air := time.Date(2024, 5, 3, 18, 0, 0, 0, time.UTC)
	created := testsupport.MustCreateUpload(t, s, upload.Upload{
		Title:       "Episode 1",
		ShowID:      show.ID,
		Medium:      upload.MediumPodcast,
		AirAt:       air,
		OriginalKey: "uploads/1/original.wav",
	})

	got, err := s.GetUpload(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUpload: %v", err)
	}
	if got.Title != "Episode 1" || got.ShowID != show.ID || got.Medium != upload.MediumPodcast {
		t.Fatalf("unexpected upload: %+v", got)
	}
	if !got.AirAt.Equal(air) {
		t.Fatalf("expected air time %v, got %v", air, got.AirAt)
	}
	if got.OptimizationStatus != upload.StatusPending || got.ExportStatus != upload.StatusPending || got.WaveformStatus != upload.StatusPending {
		t.Fatalf("expected all pipelines pending, got %+v", got)
	}
	if got.Exported() {
		t.Fatal("new upload must not be exported")
	}

	gotShow, err := s.GetShow(ctx, show.ID)
	if err != nil {
		t.Fatalf("GetShow: %v", err)
	}
	if gotShow.PlatformShowID != 77 || gotShow.Description != "Neighbourhood news" {
		t.Fatalf("unexpected show: %+v", gotShow)
	}
}

func TestGetUploadNotFound(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := s.GetUpload(context.Background(), 999)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateUploadRejectsUnknownMedium(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	show := testsupport.MustCreateShow(t, s, upload.Show{})
	if _, err := s.CreateUpload(context.Background(), upload.Upload{Title: "x", ShowID: show.ID, Medium: "vinyl"}); err == nil {
		t.Fatal("expected medium validation error")
	}
}

func TestTryStartOptimizationIsExclusive(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	show := testsupport.MustCreateShow(t, s, upload.Show{})
	u := testsupport.MustCreateUpload(t, s, upload.Upload{ShowID: show.ID})

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.TryStartOptimization(context.Background(), u.ID)
			if err != nil {
				t.Errorf("TryStartOptimization: %v", err)
				return
			}
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestFinishOptimizationPersistsResult(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	show := testsupport.MustCreateShow(t, s, upload.Show{})
	u := testsupport.MustCreateUpload(t, s, upload.Upload{ShowID: show.ID})

	result := store.OptimizationResult{
		Status:       upload.StatusDoneWithWarnings,
		Duration:     3*time.Minute + 12*time.Second + 500*time.Millisecond,
		Log:          "internal silence detected at 00:42-00:45",
		OptimizedKey: "uploads/1/optimized.mp3",
	}
	if err := s.FinishOptimization(ctx, u.ID, result); !errors.Is(err, services.ErrGuardViolation) {
		t.Fatalf("expected guard violation before start, got %v", err)
	}
	if ok, err := s.TryStartOptimization(ctx, u.ID); err != nil || !ok {
		t.Fatalf("TryStartOptimization: ok=%v err=%v", ok, err)
	}
	if err := s.FinishOptimization(ctx, u.ID, result); err != nil {
		t.Fatalf("FinishOptimization: %v", err)
	}

	got, err := s.GetUpload(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUpload: %v", err)
	}
	if got.OptimizationStatus != upload.StatusDoneWithWarnings || got.Duration != result.Duration || got.OptimizationLog != result.Log || got.OptimizedKey != result.OptimizedKey {
		t.Fatalf("unexpected persisted result: %+v", got)
	}
	if ok, _ := s.TryStartOptimization(ctx, u.ID); ok {
		t.Fatal("finished optimization must not restart")
	}
}

func TestExportGuardUsesPlatformID(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	show := testsupport.MustCreateShow(t, s, upload.Show{})
	u := testsupport.MustCreateUpload(t, s, upload.Upload{ShowID: show.ID})

	if ok, err := s.TryStartExport(ctx, u.ID); err != nil || !ok {
		t.Fatalf("TryStartExport: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.TryStartExport(ctx, u.ID); ok {
		t.Fatal("concurrent export must be rejected")
	}
	if err := s.FinishExport(ctx, u.ID, 555, upload.StatusDone); err != nil {
		t.Fatalf("FinishExport: %v", err)
	}
	got, _ := s.GetUpload(ctx, u.ID)
	if got.PlatformID != 555 || got.ExportStatus != upload.StatusDone {
		t.Fatalf("unexpected export state: %+v", got)
	}
	if ok, _ := s.TryStartExport(ctx, u.ID); ok {
		t.Fatal("exported upload must not start again")
	}

	if err := s.ResetExport(ctx, u.ID); err != nil {
		t.Fatalf("ResetExport: %v", err)
	}
	if ok, err := s.TryStartExport(ctx, u.ID); err != nil || !ok {
		t.Fatalf("expected export to restart after reset: ok=%v err=%v", ok, err)
	}
}

func TestFailedExportKeepsRemoteIDAndAllowsNoRestart(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	show := testsupport.MustCreateShow(t, s, upload.Show{})
	u := testsupport.MustCreateUpload(t, s, upload.Upload{ShowID: show.ID})

	if ok, _ := s.TryStartExport(ctx, u.ID); !ok {
		t.Fatal("expected export start")
	}
	if err := s.FinishExport(ctx, u.ID, 0, upload.StatusError); err != nil {
		t.Fatalf("FinishExport without item: %v", err)
	}
	if ok, _ := s.TryStartExport(ctx, u.ID); !ok {
		t.Fatal("failed export without remote item should be restartable")
	}
	if err := s.FinishExport(ctx, u.ID, 812, upload.StatusError); err != nil {
		t.Fatalf("FinishExport with item: %v", err)
	}
	if ok, _ := s.TryStartExport(ctx, u.ID); ok {
		t.Fatal("failed export with remote item must require a reset")
	}
}

func TestStatusSummary(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	show := testsupport.MustCreateShow(t, s, upload.Show{})
	first := testsupport.MustCreateUpload(t, s, upload.Upload{ShowID: show.ID})
	testsupport.MustCreateUpload(t, s, upload.Upload{ShowID: show.ID})
	if ok, _ := s.TryStartOptimization(ctx, first.ID); !ok {
		t.Fatal("expected start")
	}

	counts, err := s.StatusSummary(ctx)
	if err != nil {
		t.Fatalf("StatusSummary: %v", err)
	}
	found := map[string]int{}
	for _, c := range counts {
		found[string(c.Pipeline)+"/"+c.Status] = c.Count
	}
	if found["optimization/running"] != 1 || found["optimization/pending"] != 1 || found["export/pending"] != 2 {
		t.Fatalf("unexpected summary: %v", found)
	}
}

func TestReopenChecksSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := store.Open(cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = first.Close()
	second, err := store.Open(cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = second.Close()
}
