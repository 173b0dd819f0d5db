package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/alex-berlin-tv/rafo/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "rafo", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Paths.DatabasePath != filepath.Join(tempHome, ".local", "share", "rafo", "rafo.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.DatabasePath)
	}
	if cfg.Storage.Backend != config.StorageLocal {
		t.Fatalf("expected local storage by default, got %q", cfg.Storage.Backend)
	}
	if cfg.SilenceDuration() != 2*time.Second {
		t.Fatalf("unexpected silence duration: %v", cfg.SilenceDuration())
	}
	if cfg.CropAllowance() != 500*time.Millisecond {
		t.Fatalf("unexpected crop allowance: %v", cfg.CropAllowance())
	}
	if cfg.PublicationDelay() != time.Hour || cfg.Availability() != 24*time.Hour {
		t.Fatalf("unexpected publication window: %v / %v", cfg.PublicationDelay(), cfg.Availability())
	}
	if cfg.NtfyEndpoint() != "" {
		t.Fatalf("expected notifications disabled without topic, got %q", cfg.NtfyEndpoint())
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg := config.Default()
	cfg.Paths.WorkDir = "~/custom/work"
	cfg.Audio.NoiseTolerance = "0.001"
	cfg.Audio.CropAllowance = 1.25
	cfg.Audio.SampleRate = 44100
	cfg.Export.DomainID = 1234
	cfg.Export.AlwaysLinkedShows = []int{7, 7, 9, -1}
	cfg.Notifications.NtfyTopic = "rafo-alerts"
	cfg.Logging.Format = "JSON"

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(tempHome, "rafo.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if loaded.Paths.WorkDir != filepath.Join(tempHome, "custom", "work") {
		t.Fatalf("unexpected work dir: %q", loaded.Paths.WorkDir)
	}
	if loaded.CropAllowance() != 1250*time.Millisecond {
		t.Fatalf("unexpected crop allowance: %v", loaded.CropAllowance())
	}
	if got := loaded.Export.AlwaysLinkedShows; len(got) != 2 || got[0] != 7 || got[1] != 9 {
		t.Fatalf("expected deduplicated linked shows, got %v", got)
	}
	if loaded.NtfyEndpoint() != "https://ntfy.sh/rafo-alerts" {
		t.Fatalf("unexpected ntfy endpoint: %q", loaded.NtfyEndpoint())
	}
	if loaded.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", loaded.Logging.Format)
	}
}

func TestSecretsFallBackToEnvironmentAndDotEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("RAFO_ACCESS_KEY", "from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[export]\ndomain_id = 99\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envFile := "RAFO_OMNIA_API_SECRET=dotenv-secret\nRAFO_OMNIA_SESSION_ID=dotenv-session\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envFile), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("RAFO_OMNIA_API_SECRET")
		_ = os.Unsetenv("RAFO_OMNIA_SESSION_ID")
	})

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Auth.AccessKey != "from-env" {
		t.Fatalf("expected access key from env, got %q", cfg.Auth.AccessKey)
	}
	if cfg.Export.APISecret != "dotenv-secret" || cfg.Export.SessionID != "dotenv-session" {
		t.Fatalf("expected secrets from .env, got %q / %q", cfg.Export.APISecret, cfg.Export.SessionID)
	}
	if err := cfg.ValidateExportCredentials(); err != nil {
		t.Fatalf("expected export credentials to validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"noise tolerance", func(c *config.Config) { c.Audio.NoiseTolerance = "loud" }, "audio.noise_tolerance"},
		{"silence duration", func(c *config.Config) { c.Audio.SilenceDuration = 0 }, "audio.silence_duration"},
		{"crop allowance", func(c *config.Config) { c.Audio.CropAllowance = -1 }, "audio.crop_allowance"},
		{"sample rate", func(c *config.Config) { c.Audio.SampleRate = 12345 }, "audio.sample_rate"},
		{"time zone", func(c *config.Config) { c.Export.TimeZone = "Mars/Olympus" }, "export.time_zone"},
		{"storage backend", func(c *config.Config) { c.Storage.Backend = "ftp" }, "storage.backend"},
		{"minio bucket", func(c *config.Config) {
			c.Storage.Backend = config.StorageMinIO
			c.Storage.MinIO.Endpoint = "minio:9000"
		}, "storage.minio.bucket"},
		{"log level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestValidateExportCredentialsRequiresDomain(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateExportCredentials(); err == nil || !strings.Contains(err.Error(), "export.domain_id") {
		t.Fatalf("expected domain id error, got %v", err)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}
