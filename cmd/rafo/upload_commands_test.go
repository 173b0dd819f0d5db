package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/api"
	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/testsupport"
)

func TestUploadAddListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	audio := filepath.Join(env.baseDir, "incoming", "take.WAV")
	testsupport.WriteFile(t, audio, []byte("RIFF"))

	out, _, err := runCLI(t, env.configPath, "show", "add", "--name", "Morning Show", "--platform-show", "500")
	if err != nil {
		t.Fatalf("show add: %v", err)
	}
	requireContains(t, out, "Created show 1")

	out, _, err = runCLI(t, env.configPath, "upload", "add",
		"--title", "Hello Berlin",
		"--show", "1",
		"--medium", "podcast",
		"--air", "2024-03-04 18:00",
		"--file", audio,
	)
	if err != nil {
		t.Fatalf("upload add: %v", err)
	}
	requireContains(t, out, "Created upload 1")
	requireContains(t, out, "Reference: ")

	out, _, err = runCLI(t, env.configPath, "upload", "list")
	if err != nil {
		t.Fatalf("upload list: %v", err)
	}
	requireContains(t, out, "Hello Berlin")
	requireContains(t, out, "podcast")
	requireContains(t, out, "2024-03-04 18:00")

	out, _, err = runCLI(t, env.configPath, "upload", "show", "1")
	if err != nil {
		t.Fatalf("upload show: %v", err)
	}
	requireContains(t, out, "uploads/1/original.wav")
	requireContains(t, out, "pending")

	out, _, err = runCLI(t, env.configPath, "show", "list")
	if err != nil {
		t.Fatalf("show list: %v", err)
	}
	requireContains(t, out, "Morning Show")
	requireContains(t, out, "500")
}

func TestUploadAddRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "upload", "add", "--title", "x", "--medium", "vinyl"); err == nil {
		t.Fatal("expected unknown medium to fail")
	}
	if _, _, err := runCLI(t, env.configPath, "upload", "add", "--title", "x", "--air", "tomorrow"); err == nil {
		t.Fatal("expected malformed air time to fail")
	}
	if _, _, err := runCLI(t, env.configPath, "upload", "show", "abc"); err == nil {
		t.Fatal("expected invalid id to fail")
	}
}

func TestUploadListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env.configPath, "upload", "list")
	if err != nil {
		t.Fatalf("upload list: %v", err)
	}
	requireContains(t, out, "No uploads")
}

func TestExportResetCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env.configPath, "upload", "add", "--title", "Reset me"); err != nil {
		t.Fatalf("upload add: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "export", "reset", "1")
	if err != nil {
		t.Fatalf("export reset: %v", err)
	}
	requireContains(t, out, "Upload 1 export reset")

	_, _, err = runCLI(t, env.configPath, "export", "reset", "99")
	if !errors.Is(err, services.ErrGuardViolation) {
		t.Fatalf("expected guard violation for missing upload, got %v", err)
	}
}

func TestExportLinkIssuesScopedToken(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "export-link", "7")
	if err != nil {
		t.Fatalf("export-link: %v", err)
	}
	link := strings.TrimSpace(out)
	prefix := "http://media.test/api/uploads/7/export?key="
	if !strings.HasPrefix(link, prefix) {
		t.Fatalf("unexpected link %q", link)
	}
	token := strings.TrimPrefix(link, prefix)

	auth := api.NewAuthorizer("", env.cfg.Auth.JWTSecret)
	if err := auth.Authorize(token, 7); err != nil {
		t.Fatalf("token should open upload 7: %v", err)
	}
	if err := auth.Authorize(token, 8); err == nil {
		t.Fatal("token must not open another upload")
	}
}

func TestIssuedLinkExpires(t *testing.T) {
	token, err := api.IssueLinkToken("test-secret", 3, time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("IssueLinkToken: %v", err)
	}
	if err := api.NewAuthorizer("", "test-secret").Authorize(token, 3); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestUploadResetPipeline(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env.configPath, "upload", "add", "--title", "Broken"); err != nil {
		t.Fatalf("upload add: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "upload", "reset", "1")
	if err != nil {
		t.Fatalf("upload reset: %v", err)
	}
	requireContains(t, out, "Upload 1 optimization reset to pending")

	if _, _, err := runCLI(t, env.configPath, "upload", "reset", "1", "--pipeline", "mastering"); err == nil {
		t.Fatal("expected unknown pipeline to fail")
	}
	_, _, err = runCLI(t, env.configPath, "upload", "reset", "5", "--pipeline", "waveform")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for missing upload, got %v", err)
	}
}
