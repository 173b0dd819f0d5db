package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alex-berlin-tv/rafo/internal/logging"
)

// runsDir is the subdirectory of the work dir holding per-run scratch space.
const runsDir = "runs"

// Run is a scratch directory owned by one pipeline run.
type Run struct {
	Dir string
}

// NewRun creates a fresh scratch directory for an upload pipeline run. The
// directory name carries the upload ID and a random suffix so concurrent runs
// never collide.
func NewRun(workDir string, uploadID int64, pipeline string) (*Run, error) {
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return nil, fmt.Errorf("staging: work dir is empty")
	}
	name := fmt.Sprintf("%s-%d-%s", pipeline, uploadID, uuid.NewString()[:8])
	dir := filepath.Join(workDir, runsDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create run dir: %w", err)
	}
	return &Run{Dir: dir}, nil
}

// Path returns a file path inside the run directory.
func (r *Run) Path(name string) string {
	return filepath.Join(r.Dir, filepath.Base(name))
}

// Remove deletes the run directory and everything in it.
func (r *Run) Remove() error {
	if r == nil || r.Dir == "" {
		return nil
	}
	return os.RemoveAll(r.Dir)
}

// CleanStaleResult contains the outcome of a stale directory cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes run directories under workDir older than maxAge. Runs
// interrupted by a crash leave their directories behind; the server calls this
// on startup.
func CleanStale(ctx context.Context, workDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return result
	}
	root := filepath.Join(workDir, runsDir)

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}

	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "staging"))
	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() {
			continue
		}

		dirPath := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale run directory", "staging_cleanup_failed",
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		logger.Info("removed stale run directory",
			logging.String("path", dirPath),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}

	return result
}
