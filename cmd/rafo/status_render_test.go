package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/alex-berlin-tv/rafo/internal/deps"
	"github.com/alex-berlin-tv/rafo/internal/preflight"
	"github.com/alex-berlin-tv/rafo/internal/store"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Server", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Server:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Server", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	lines := dependencyLines([]deps.Status{
		{Name: "FFmpeg", Command: "ffmpeg", Available: true},
		{Name: "FFprobe", Command: "ffprobe", Detail: "binary \"ffprobe\" not found"},
		{Name: "Extra", Optional: true},
	}, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[OK] Ready (command: ffmpeg)") {
		t.Fatalf("unexpected ready line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] binary") {
		t.Fatalf("unexpected missing line %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN] not available") {
		t.Fatalf("unexpected optional line %q", lines[2])
	}
	if !strings.Contains(lines[3], "Missing") || !strings.Contains(lines[3], "FFprobe") || strings.Contains(lines[3], "Extra") {
		t.Fatalf("unexpected summary line %q", lines[3])
	}
}

func TestCheckLines(t *testing.T) {
	lines := checkLines([]preflight.Result{
		{Name: "Database", Passed: true, Detail: "ok"},
		{Name: "Omnia API", Detail: "connection refused"},
	}, false)
	if !strings.Contains(lines[0], "[OK] ok") || !strings.Contains(lines[1], "[ERROR] connection refused") {
		t.Fatalf("unexpected check lines %q", lines)
	}
}

func TestPipelineRowsPivotsCounts(t *testing.T) {
	columns, rows := pipelineRows([]store.StatusCount{
		{Pipeline: store.PipelineOptimization, Status: "done", Count: 2},
		{Pipeline: store.PipelineExport, Status: "pending", Count: 3},
		{Pipeline: store.PipelineExport, Status: "error", Count: 1},
	})
	if len(columns) != 6 {
		t.Fatalf("expected pipeline plus five status columns, got %d", len(columns))
	}
	if len(rows) != 2 {
		t.Fatalf("expected two pipelines, got %q", rows)
	}
	want := []string{"export", "3", "0", "0", "0", "1"}
	if strings.Join(rows[0], ",") != strings.Join(want, ",") {
		t.Fatalf("export row = %q, want %q", rows[0], want)
	}
	if rows[1][0] != "optimization" || rows[1][3] != "2" {
		t.Fatalf("unexpected optimization row %q", rows[1])
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable([]column{{Header: "ID", Right: true}, {Header: "Title"}}, [][]string{{"1", "Hello"}, {"12"}})
	if !strings.Contains(out, "Hello") || !strings.Contains(out, "12") {
		t.Fatalf("unexpected table %q", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty output without columns")
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
