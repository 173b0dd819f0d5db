package optimization

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/audio"
	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/notifications"
	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/staging"
	"github.com/alex-berlin-tv/rafo/internal/store"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

const (
	stageOptimization = "optimization"
	stageWaveform     = "waveform"
	waveformFile      = "waveform.png"
	persistTimeout    = 15 * time.Second
)

// Records is the slice of the record store the pipelines need.
type Records interface {
	GetUpload(ctx context.Context, id int64) (*upload.Upload, error)
	GetShow(ctx context.Context, id int64) (*upload.Show, error)
	TryStartOptimization(ctx context.Context, id int64) (bool, error)
	FinishOptimization(ctx context.Context, id int64, result store.OptimizationResult) error
	TryStartWaveform(ctx context.Context, id int64) (bool, error)
	FinishWaveform(ctx context.Context, id int64, status upload.Status, key string) error
}

// Media moves files between the run directory and durable storage.
type Media interface {
	Fetch(ctx context.Context, key, dst string) error
	Put(ctx context.Context, key, src string) error
}

// Runner drives the optimization and waveform pipelines of an upload.
type Runner struct {
	records   Records
	media     Media
	optimizer *audio.Optimizer
	waveform  *audio.Waveform
	notifier  notifications.Service
	workDir   string
	location  *time.Location
	logger    *slog.Logger
}

// NewRunner wires a runner from configuration.
func NewRunner(cfg *config.Config, records Records, media Media, engine audio.Engine, notifier notifications.Service, logger *slog.Logger) (*Runner, error) {
	settings, err := audio.SettingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Runner{
		records:   records,
		media:     media,
		optimizer: audio.NewOptimizer(engine, settings, logger),
		waveform:  audio.NewWaveform(engine),
		notifier:  notifier,
		workDir:   cfg.Paths.WorkDir,
		location:  cfg.Location(),
		logger:    logging.NewComponentLogger(logger, "optimization"),
	}, nil
}

// Optimize claims and processes the optimization pipeline of an upload,
// returning the persisted status.
func (r *Runner) Optimize(ctx context.Context, id int64) (upload.Status, error) {
	ctx = services.WithStage(services.WithUploadID(ctx, id), stageOptimization)
	u, err := r.claimOptimization(ctx, id)
	if err != nil {
		return "", err
	}
	return r.processOptimization(ctx, u)
}

// StartOptimize claims the pipeline synchronously, so callers learn about
// guard violations immediately, and processes it in the background. The
// returned channel yields the outcome and is then closed.
func (r *Runner) StartOptimize(ctx context.Context, id int64) (<-chan error, error) {
	ctx = services.WithStage(services.WithUploadID(ctx, id), stageOptimization)
	u, err := r.claimOptimization(ctx, id)
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		defer close(done)
		_, err := r.processOptimization(ctx, u)
		done <- err
	}()
	return done, nil
}

func (r *Runner) claimOptimization(ctx context.Context, id int64) (*upload.Upload, error) {
	u, err := r.records.GetUpload(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := r.records.TryStartOptimization(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, services.Wrap(services.ErrGuardViolation, stageOptimization, "claim",
			fmt.Sprintf("upload %d optimization is %s, want pending", id, u.OptimizationStatus.Label()), nil)
	}
	u.OptimizationStatus = upload.StatusRunning
	return u, nil
}

func (r *Runner) processOptimization(ctx context.Context, u *upload.Upload) (upload.Status, error) {
	logger := logging.WithContext(ctx, r.logger)
	started := time.Now()
	logger.Info("optimization started",
		logging.String(logging.FieldEventType, "optimization_started"),
		logging.String("original_key", u.OriginalKey),
	)

	result, key, err := r.optimize(ctx, u)
	if err != nil {
		status := services.FailureStatus(upload.StatusRunning, err)
		logging.ErrorWithContext(logger, "optimization failed", "optimization_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the source file or configuration, then reset the pipeline"),
		)
		persistCtx, cancel := detached(ctx)
		defer cancel()
		log := fmt.Sprintf("[ERROR] %s\n", err)
		if perr := r.records.FinishOptimization(persistCtx, u.ID, store.OptimizationResult{Status: status, Log: log}); perr != nil {
			logging.WarnWithContext(logger, "failed to persist optimization failure", "optimization_persist_failed",
				logging.Error(perr),
				logging.String(logging.FieldImpact, "upload stays in running state until reset"),
			)
		}
		r.notify(persistCtx, logger, *u, status, log)
		return status, err
	}

	persisted := store.OptimizationResult{
		Status:       result.Status,
		Duration:     result.Duration,
		Log:          result.Report.Text(),
		OptimizedKey: key,
	}
	persistCtx, cancel := detached(ctx)
	defer cancel()
	if err := r.records.FinishOptimization(persistCtx, u.ID, persisted); err != nil {
		return "", err
	}

	logger.Info("optimization finished",
		logging.String(logging.FieldEventType, "optimization_finished"),
		logging.String("status", string(result.Status)),
		logging.String("optimized_key", key),
		logging.Duration("elapsed", time.Since(started)),
	)
	r.notify(persistCtx, logger, *u, result.Status, persisted.Log)
	return result.Status, nil
}

func (r *Runner) optimize(ctx context.Context, u *upload.Upload) (audio.Result, string, error) {
	if strings.TrimSpace(u.OriginalKey) == "" {
		return audio.Result{}, "", services.Wrap(services.ErrNotFound, stageOptimization, "fetch", "upload has no original file", nil)
	}
	run, err := staging.NewRun(r.workDir, u.ID, stageOptimization)
	if err != nil {
		return audio.Result{}, "", err
	}
	defer func() { _ = run.Remove() }()

	input := run.Path("original" + filepath.Ext(u.OriginalKey))
	if err := r.media.Fetch(ctx, u.OriginalKey, input); err != nil {
		return audio.Result{}, "", fmt.Errorf("fetch original: %w", err)
	}

	name := upload.FileName(*u, r.location, "mp3")
	output := run.Path(name)
	result, err := r.optimizer.Optimize(ctx, audio.Request{
		Input:  input,
		Output: output,
		Title:  name,
		Tags:   r.tags(ctx, u),
	})
	if err != nil {
		return audio.Result{}, "", err
	}

	key := upload.StorageKey(u.ID, name)
	if err := r.media.Put(ctx, key, output); err != nil {
		return audio.Result{}, "", fmt.Errorf("store optimized file: %w", err)
	}
	return result, key, nil
}

func (r *Runner) tags(ctx context.Context, u *upload.Upload) audio.Tags {
	tags := audio.Tags{
		Artist:  u.Author,
		Comment: upload.ReferenceNumber(*u, r.location),
	}
	date := u.CreatedAt
	if u.HasAirDate() {
		date = u.AirAt
	}
	tags.Date = date.In(r.location).Format("2006-01-02")
	if u.ShowID != 0 {
		if show, err := r.records.GetShow(ctx, u.ShowID); err == nil {
			tags.Album = show.Name
		}
	}
	return tags
}

func (r *Runner) notify(ctx context.Context, logger *slog.Logger, u upload.Upload, status upload.Status, log string) {
	if err := r.notifier.NotifyOptimizationFinished(ctx, u, status, log); err != nil {
		logging.WarnWithContext(logger, "optimization notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "operators are not notified"),
		)
	}
}

// Waveform claims and renders the waveform image of an upload. The optimized
// file is preferred over the original when it exists.
func (r *Runner) Waveform(ctx context.Context, id int64) (upload.Status, error) {
	ctx = services.WithStage(services.WithUploadID(ctx, id), stageWaveform)
	logger := logging.WithContext(ctx, r.logger)

	u, err := r.records.GetUpload(ctx, id)
	if err != nil {
		return "", err
	}
	ok, err := r.records.TryStartWaveform(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", services.Wrap(services.ErrGuardViolation, stageWaveform, "claim",
			fmt.Sprintf("upload %d waveform is %s, want pending", id, u.WaveformStatus.Label()), nil)
	}

	key, err := r.renderWaveform(ctx, u)
	persistCtx, cancel := detached(ctx)
	defer cancel()
	if err != nil {
		logging.ErrorWithContext(logger, "waveform failed", "waveform_failed", logging.Error(err))
		if perr := r.records.FinishWaveform(persistCtx, id, upload.StatusError, ""); perr != nil {
			logging.WarnWithContext(logger, "failed to persist waveform failure", "waveform_persist_failed", logging.Error(perr))
		}
		return upload.StatusError, err
	}
	if err := r.records.FinishWaveform(persistCtx, id, upload.StatusDone, key); err != nil {
		return "", err
	}
	logger.Info("waveform rendered",
		logging.String(logging.FieldEventType, "waveform_finished"),
		logging.String("waveform_key", key),
	)
	return upload.StatusDone, nil
}

func (r *Runner) renderWaveform(ctx context.Context, u *upload.Upload) (string, error) {
	source := u.OptimizedKey
	if strings.TrimSpace(source) == "" {
		source = u.OriginalKey
	}
	if strings.TrimSpace(source) == "" {
		return "", services.Wrap(services.ErrNotFound, stageWaveform, "fetch", "upload has no audio file", nil)
	}
	run, err := staging.NewRun(r.workDir, u.ID, stageWaveform)
	if err != nil {
		return "", err
	}
	defer func() { _ = run.Remove() }()

	input := run.Path("source" + filepath.Ext(source))
	if err := r.media.Fetch(ctx, source, input); err != nil {
		return "", fmt.Errorf("fetch audio: %w", err)
	}
	output := run.Path(waveformFile)
	if err := r.waveform.Render(ctx, input, output); err != nil {
		return "", err
	}
	key := upload.StorageKey(u.ID, waveformFile)
	if err := r.media.Put(ctx, key, output); err != nil {
		return "", fmt.Errorf("store waveform: %w", err)
	}
	return key, nil
}

// detached returns a context for persisting outcomes that survives
// cancellation of the run context.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}
