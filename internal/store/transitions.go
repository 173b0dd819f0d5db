package store

import (
	"context"
	"fmt"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

// TryStart moves a pipeline from pending to running. It returns false when
// another trigger already claimed the upload or the pipeline is not pending.
// The conditional UPDATE is the only concurrency guard the pipelines rely on.
func (s *Store) TryStart(ctx context.Context, id int64, pipeline Pipeline) (bool, error) {
	column := pipeline.column()
	if column == "" {
		return false, fmt.Errorf("unknown pipeline %q", pipeline)
	}
	query := `UPDATE uploads SET ` + column + ` = ?, updated_at = ? WHERE id = ? AND ` + column + ` = ?`
	args := []any{string(upload.StatusRunning), formatTime(time.Now()), id, string(upload.StatusPending)}
	if pipeline == PipelineExport {
		// Failed exports may be retried by the operator; exported uploads may not.
		query = `UPDATE uploads SET export_status = ?, updated_at = ?
            WHERE id = ? AND platform_id = 0 AND export_status IN (?, ?)`
		args = []any{string(upload.StatusRunning), formatTime(time.Now()), id, string(upload.StatusPending), string(upload.StatusError)}
	}
	affected, err := s.execAffected(ctx, query, args...)
	if err != nil {
		return false, services.Wrap(services.ErrRemoteTransport, "store", "start "+string(pipeline), "", err)
	}
	return affected == 1, nil
}

// TryStartOptimization claims the optimization pipeline of an upload.
func (s *Store) TryStartOptimization(ctx context.Context, id int64) (bool, error) {
	return s.TryStart(ctx, id, PipelineOptimization)
}

// TryStartWaveform claims the waveform pipeline of an upload.
func (s *Store) TryStartWaveform(ctx context.Context, id int64) (bool, error) {
	return s.TryStart(ctx, id, PipelineWaveform)
}

// TryStartExport claims the export pipeline of an upload that has no platform ID yet.
func (s *Store) TryStartExport(ctx context.Context, id int64) (bool, error) {
	return s.TryStart(ctx, id, PipelineExport)
}

// FinishOptimization persists the optimizer outcome. The upload must be running.
func (s *Store) FinishOptimization(ctx context.Context, id int64, result OptimizationResult) error {
	if err := upload.StatusRunning.ValidateTransition(result.Status); err != nil {
		return fmt.Errorf("finish optimization: %w", err)
	}
	affected, err := s.execAffected(ctx,
		`UPDATE uploads
         SET optimization_status = ?, optimization_log = ?, duration_ms = ?,
             optimized_key = CASE WHEN ? = '' THEN optimized_key ELSE ? END,
             updated_at = ?
         WHERE id = ? AND optimization_status = ?`,
		string(result.Status), result.Log, result.Duration.Milliseconds(),
		result.OptimizedKey, result.OptimizedKey,
		formatTime(time.Now()),
		id, string(upload.StatusRunning),
	)
	if err != nil {
		return services.Wrap(services.ErrRemoteTransport, "store", "finish optimization", "", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrGuardViolation, "store", "finish optimization", fmt.Sprintf("upload %d is not running", id), nil)
	}
	return nil
}

// FinishWaveform persists the waveform outcome. The upload must be running.
func (s *Store) FinishWaveform(ctx context.Context, id int64, status upload.Status, key string) error {
	if err := upload.StatusRunning.ValidateTransition(status); err != nil {
		return fmt.Errorf("finish waveform: %w", err)
	}
	affected, err := s.execAffected(ctx,
		`UPDATE uploads
         SET waveform_status = ?, waveform_key = CASE WHEN ? = '' THEN waveform_key ELSE ? END, updated_at = ?
         WHERE id = ? AND waveform_status = ?`,
		string(status), key, key, formatTime(time.Now()), id, string(upload.StatusRunning),
	)
	if err != nil {
		return services.Wrap(services.ErrRemoteTransport, "store", "finish waveform", "", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrGuardViolation, "store", "finish waveform", fmt.Sprintf("upload %d is not running", id), nil)
	}
	return nil
}

// FinishExport records the platform item identifier and the export outcome.
// A platform ID of 0 records a failure before any remote item was created.
// An already stored, different platform ID is never overwritten.
func (s *Store) FinishExport(ctx context.Context, id int64, platformID int, status upload.Status) error {
	if err := upload.StatusRunning.ValidateTransition(status); err != nil {
		return fmt.Errorf("finish export: %w", err)
	}
	affected, err := s.execAffected(ctx,
		`UPDATE uploads
         SET export_status = ?, platform_id = CASE WHEN ? = 0 THEN platform_id ELSE ? END, updated_at = ?
         WHERE id = ? AND export_status = ? AND (platform_id = 0 OR platform_id = ?)`,
		string(status), platformID, platformID, formatTime(time.Now()),
		id, string(upload.StatusRunning), platformID,
	)
	if err != nil {
		return services.Wrap(services.ErrRemoteTransport, "store", "finish export", "", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrGuardViolation, "store", "finish export", fmt.Sprintf("upload %d is not exporting or carries another platform id", id), nil)
	}
	return nil
}

// ResetExport clears the platform identifier so the upload can be exported
// again. Running exports are left alone.
func (s *Store) ResetExport(ctx context.Context, id int64) error {
	affected, err := s.execAffected(ctx,
		`UPDATE uploads SET platform_id = 0, export_status = ?, updated_at = ? WHERE id = ? AND export_status != ?`,
		string(upload.StatusPending), formatTime(time.Now()), id, string(upload.StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("reset export: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrGuardViolation, "store", "reset export", fmt.Sprintf("upload %d missing or export running", id), nil)
	}
	return nil
}

// ResetPipeline returns an errored or stuck pipeline to pending. This is the
// operator intervention required after an optimization error.
func (s *Store) ResetPipeline(ctx context.Context, id int64, pipeline Pipeline) error {
	if pipeline == PipelineExport {
		return s.ResetExport(ctx, id)
	}
	column := pipeline.column()
	if column == "" {
		return fmt.Errorf("unknown pipeline %q", pipeline)
	}
	affected, err := s.execAffected(ctx,
		`UPDATE uploads SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		string(upload.StatusPending), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("reset %s: %w", pipeline, err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "reset "+string(pipeline), fmt.Sprintf("upload %d", id), nil)
	}
	return nil
}
