package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/alex-berlin-tv/rafo/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "rafo.db")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Paths.PublicURL = "http://media.test"
	cfgVal.Storage.LocalDir = filepath.Join(base, "media")
	cfgVal.Auth.AccessKey = "test-key"
	cfgVal.Auth.JWTSecret = "test-secret"
	cfgVal.Export.DomainID = 1000
	cfgVal.Export.APISecret = "secret"
	cfgVal.Export.SessionID = "session"
	cfgVal.Export.TimeZone = "UTC"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithExportBaseURL points the platform client at a test server.
func WithExportBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.BaseURL = url
	}
}

// WithAlwaysLinkedShows sets the cross-listing show IDs.
func WithAlwaysLinkedShows(ids ...int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.AlwaysLinkedShows = ids
	}
}

// WithNtfyTopic enables notifications against the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DatabasePath)
}
