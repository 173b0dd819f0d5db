package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alex-berlin-tv/rafo/internal/api"
	"github.com/alex-berlin-tv/rafo/internal/testsupport"
)

func TestStatusJSON(t *testing.T) {
	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(platform.Close)

	env := setupCLITestEnv(t, testsupport.WithExportBaseURL(platform.URL))
	if _, _, err := runCLI(t, env.configPath, "upload", "add", "--title", "Counted"); err != nil {
		t.Fatalf("upload add: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status api.Status
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if len(status.Dependencies) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe, got %+v", status.Dependencies)
	}

	checks := map[string]bool{}
	for _, c := range status.Checks {
		checks[c.Name] = c.Passed
	}
	for _, name := range []string{"Database", "Work directory", "Omnia API"} {
		if passed, ok := checks[name]; !ok || !passed {
			t.Fatalf("expected passing %s check, got %+v", name, status.Checks)
		}
	}

	var pendingExports int
	for _, p := range status.Pipelines {
		if p.Pipeline == "export" && p.Status == "pending" {
			pendingExports = p.Count
		}
	}
	if pendingExports != 1 {
		t.Fatalf("expected one pending export, got %+v", status.Pipelines)
	}
}

func TestStatusText(t *testing.T) {
	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(platform.Close)

	env := setupCLITestEnv(t, testsupport.WithExportBaseURL(platform.URL))
	out, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Server ==")
	requireContains(t, out, "Not running")
	requireContains(t, out, "Domain 1000")
	requireContains(t, out, "== Pipelines ==")
	requireContains(t, out, "none")
}
