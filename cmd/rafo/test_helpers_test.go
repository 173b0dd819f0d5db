package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nwork_dir = %q\nlog_dir = %q\ndatabase_path = %q\napi_bind = %q\npublic_url = %q\n\n",
		cfg.Paths.WorkDir, cfg.Paths.LogDir, cfg.Paths.DatabasePath, cfg.Paths.APIBind, cfg.Paths.PublicURL)
	fmt.Fprintf(&b, "[auth]\naccess_key = %q\njwt_secret = %q\n\n", cfg.Auth.AccessKey, cfg.Auth.JWTSecret)
	fmt.Fprintf(&b, "[export]\nbase_url = %q\ndomain_id = %d\napi_secret = %q\nsession_id = %q\ntime_zone = %q\n\n",
		cfg.Export.BaseURL, cfg.Export.DomainID, cfg.Export.APISecret, cfg.Export.SessionID, cfg.Export.TimeZone)
	fmt.Fprintf(&b, "[storage]\nbackend = \"local\"\nlocal_dir = %q\n", cfg.Storage.LocalDir)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
