package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/preflight"
	"github.com/alex-berlin-tv/rafo/internal/staging"
)

// staleRunAge is how old a leftover staging run must be before startup
// removes it.
const staleRunAge = 6 * time.Hour

// Server is the network surface the daemon runs.
type Server interface {
	Start(ctx context.Context) error
	Stop()
}

// Daemon runs the API server and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	server Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	DatabasePath string
	LockFilePath string
	Checks       []preflight.Result
}

// New constructs a daemon around server.
func New(cfg *config.Config, server Server, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || server == nil {
		return nil, errors.New("daemon requires config and server")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		server:   server,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the lock, clears stale staging runs and starts the server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another rafo server instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	cleaned := staging.CleanStale(d.ctx, d.cfg.Paths.WorkDir, staleRunAge, d.logger)
	if len(cleaned.Removed) > 0 {
		d.logger.Info("removed stale staging runs", logging.Int("count", len(cleaned.Removed)))
	}
	for _, failed := range preflight.Failed(preflight.RunAll(d.ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldImpact, "pipelines depending on it will fail"),
		)
	}

	if err := d.server.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("rafo server started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops the server and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("rafo server stopped")
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		DatabasePath: d.cfg.Paths.DatabasePath,
		LockFilePath: d.lockPath,
		Checks:       preflight.RunAll(ctx, d.cfg),
	}
}
