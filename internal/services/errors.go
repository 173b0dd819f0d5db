package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alex-berlin-tv/rafo/internal/upload"
)

var (
	// ErrAnalysis marks audio that could not be decoded or measured.
	ErrAnalysis = errors.New("analysis error")
	// ErrEncoding marks a failed transcode or tagging run.
	ErrEncoding = errors.New("encoding error")
	// ErrGuardViolation marks an operation rejected because the upload is in a
	// conflicting state (already running, already exported).
	ErrGuardViolation = errors.New("guard violation")
	// ErrRemoteTransport marks network or availability failures talking to the
	// record store or the publishing platform.
	ErrRemoteTransport = errors.New("remote transport error")
	// ErrRemoteApplication marks a request the platform answered with an error.
	ErrRemoteApplication = errors.New("remote application error")
	// ErrValidationMismatch marks platform metadata that differs from what was requested.
	ErrValidationMismatch = errors.New("validation mismatch")
	ErrConfiguration      = errors.New("configuration error")
	ErrNotFound           = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrRemoteTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a pipeline error to the status that should be persisted
// for the failed run. A guard violation leaves the record untouched, so the
// current status is returned unchanged.
func FailureStatus(current upload.Status, err error) upload.Status {
	if errors.Is(err, ErrGuardViolation) {
		return current
	}
	return upload.StatusError
}

// Kind returns a short machine-readable label for the marker carried by err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAnalysis):
		return "analysis"
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrGuardViolation):
		return "guard_violation"
	case errors.Is(err, ErrValidationMismatch):
		return "validation_mismatch"
	case errors.Is(err, ErrRemoteApplication):
		return "remote_application"
	case errors.Is(err, ErrRemoteTransport):
		return "remote_transport"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
