package daemonrun

import (
	"context"
	"testing"

	"github.com/alex-berlin-tv/rafo/internal/mediastore"
	"github.com/alex-berlin-tv/rafo/internal/testsupport"
)

func TestBuildWiresLocalStack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	c, err := Build(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if _, ok := c.Media.(*mediastore.Local); !ok {
		t.Fatalf("expected local media store, got %T", c.Media)
	}
	if c.Exporter == nil {
		t.Fatal("expected exporter with complete credentials")
	}
	if _, ok := c.Pingers["Database"]; !ok {
		t.Fatal("expected database pinger")
	}
	if _, ok := c.Pingers["Redis"]; ok {
		t.Fatal("redis must not be wired without an address")
	}
	if _, err := c.Server(); err != nil {
		t.Fatalf("Server: %v", err)
	}
}

func TestBuildWithoutCredentialsDisablesExport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Export.APISecret = ""
	c, err := Build(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	if c.Exporter != nil {
		t.Fatal("expected export to be disabled")
	}
}
