package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alex-berlin-tv/rafo/internal/api"
	"github.com/alex-berlin-tv/rafo/internal/audio"
	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/export"
	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/mediastore"
	"github.com/alex-berlin-tv/rafo/internal/notifications"
	"github.com/alex-berlin-tv/rafo/internal/omnia"
	"github.com/alex-berlin-tv/rafo/internal/optimization"
	"github.com/alex-berlin-tv/rafo/internal/platformcache"
	"github.com/alex-berlin-tv/rafo/internal/preflight"
	"github.com/alex-berlin-tv/rafo/internal/store"
)

// Components holds every service built from one configuration. The CLI
// and the server share it.
type Components struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *store.Store
	Media    mediastore.Store
	Notifier notifications.Service
	Runner   *optimization.Runner
	// Exporter is nil when the platform credentials are incomplete.
	Exporter *export.Orchestrator
	Pingers  map[string]preflight.Pinger

	closers []func() error
}

// Build opens the store and wires the pipelines.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	c := &Components{Config: cfg, Logger: logger, Pingers: map[string]preflight.Pinger{}}
	st, err := store.Open(cfg.Paths.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c.Store = st
	c.closers = append(c.closers, st.Close)
	c.Pingers["Database"] = st

	media, err := mediastore.New(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("open media store: %w", err)
	}
	c.Media = media
	c.Notifier = notifications.NewService(cfg)

	engine := audio.NewFFmpeg(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	c.Runner, err = optimization.NewRunner(cfg, st, media, engine, c.Notifier, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("build optimizer: %w", err)
	}

	if err := cfg.ValidateExportCredentials(); err != nil {
		logging.WarnWithContext(logger, "export disabled", "export_disabled",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set export.domain_id, api_secret and session_id"),
			logging.String(logging.FieldImpact, "uploads cannot be published"),
		)
		return c, nil
	}
	client := omnia.NewClient(cfg.Export, logger)
	shows := platformcache.NewShows(client, c.showCache(ctx, logger), cfg.ShowCacheTTL(), logger)
	c.Exporter = export.NewOrchestrator(export.PolicyFromConfig(cfg), st, client, shows, media, c.Notifier, logger)
	return c, nil
}

// showCache returns redis when configured and reachable, else memory.
func (c *Components) showCache(ctx context.Context, logger *slog.Logger) platformcache.KV {
	if c.Config.Cache.RedisAddr == "" {
		return platformcache.NewMemory()
	}
	r, err := platformcache.NewRedis(ctx, c.Config.Cache)
	if err != nil {
		logging.WarnWithContext(logger, "redis unavailable, caching shows in memory", "cache_fallback",
			logging.String("redis_addr", c.Config.Cache.RedisAddr),
			logging.Error(err),
			logging.String(logging.FieldImpact, "show lookups are not shared between processes"),
		)
		return platformcache.NewMemory()
	}
	c.closers = append(c.closers, r.Close)
	c.Pingers["Redis"] = r
	return r
}

// Server builds the API server over the components.
func (c *Components) Server() (*api.Server, error) {
	opts := api.Options{
		Config:    c.Config,
		Uploads:   c.Store,
		Optimizer: c.Runner,
		Links:     c.Media,
		Pingers:   c.Pingers,
		Logger:    c.Logger,
	}
	if c.Exporter != nil {
		opts.Exporter = c.Exporter
	}
	if local, ok := c.Media.(*mediastore.Local); ok {
		opts.Local = local
	}
	return api.NewServer(opts)
}

// Close releases every opened resource in reverse order.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
