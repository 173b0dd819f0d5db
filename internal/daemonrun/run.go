package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/daemon"
	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/preflight"
)

// Run starts the rafo server and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logDependencySnapshot(logger, cfg)

	components, err := Build(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("build components", logging.Error(err))
		return err
	}
	defer components.Close()

	server, err := components.Server()
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	d, err := daemon.New(cfg, server, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.WorkDir, "rafo.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	defer d.Stop()

	<-signalCtx.Done()
	logger.Info("rafo server shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []any{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		key := strings.ToLower(dep.Name)
		attrs = append(attrs,
			logging.Bool(key+"_available", dep.Available),
			logging.String(key+"_binary", dep.Command),
		)
		if dep.Version != "" {
			attrs = append(attrs, logging.String(key+"_version", dep.Version))
		}
	}
	attrs = append(attrs,
		logging.String("storage_backend", cfg.Storage.Backend),
		logging.Bool("redis_configured", strings.TrimSpace(cfg.Cache.RedisAddr) != ""),
		logging.Bool("ntfy_configured", cfg.NtfyEndpoint() != ""),
		logging.Bool("export_credentials_present", cfg.ValidateExportCredentials() == nil),
	)
	logger.Info("dependency snapshot", attrs...)
}
