package upload

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of one pipeline (waveform, optimization,
// export) on an upload. The pipelines are triggered and fail independently,
// so each carries its own Status value.
type Status string

const (
	StatusPending          Status = "pending"
	StatusRunning          Status = "running"
	StatusDone             Status = "done"
	StatusDoneWithWarnings Status = "done_with_warnings"
	StatusError            Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusDone,
	StatusDoneWithWarnings,
	StatusError,
}

type statusTransition struct {
	from Status
	to   Status
}

var allowedTransitions = map[statusTransition]struct{}{
	{from: StatusPending, to: StatusRunning}:          {},
	{from: StatusRunning, to: StatusDone}:             {},
	{from: StatusRunning, to: StatusDoneWithWarnings}: {},
	{from: StatusRunning, to: StatusError}:            {},
}

// ParseStatus converts a persisted status string into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// CanTransition reports whether a pipeline may move from s to next.
func (s Status) CanTransition(next Status) bool {
	_, ok := allowedTransitions[statusTransition{from: s, to: next}]
	return ok
}

// ValidateTransition returns an error describing a forbidden transition.
func (s Status) ValidateTransition(next Status) error {
	if s.CanTransition(next) {
		return nil
	}
	return fmt.Errorf("invalid status transition %s -> %s", s, next)
}

// IsTerminal reports whether no further automatic transition is possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDone, StatusDoneWithWarnings, StatusError:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the pipeline completed, with or without warnings.
func (s Status) Succeeded() bool {
	return s == StatusDone || s == StatusDoneWithWarnings
}

// Label returns a human readable label for status output.
func (s Status) Label() string {
	switch s {
	case StatusDoneWithWarnings:
		return "done (warnings)"
	case "":
		return string(StatusPending)
	default:
		return string(s)
	}
}

// Medium is the distribution channel an upload is produced for.
type Medium string

const (
	MediumRadio   Medium = "radio"
	MediumPodcast Medium = "podcast"
	MediumTV      Medium = "tv"
	MediumNews    Medium = "news"
)

// ParseMedium converts user input into a Medium.
func ParseMedium(value string) (Medium, error) {
	switch Medium(strings.ToLower(strings.TrimSpace(value))) {
	case MediumRadio:
		return MediumRadio, nil
	case MediumPodcast:
		return MediumPodcast, nil
	case MediumTV:
		return MediumTV, nil
	case MediumNews:
		return MediumNews, nil
	default:
		return "", fmt.Errorf("unknown medium %q (want radio, podcast, tv or news)", value)
	}
}

// HasDepublication reports whether published items of this medium expire.
// Podcasts stay available indefinitely.
func (m Medium) HasDepublication() bool {
	return m != MediumPodcast
}

// NeedsLicensingWarning reports whether open-ended availability requires the
// producer to confirm music licensing.
func (m Medium) NeedsLicensingWarning() bool {
	return m == MediumPodcast
}

// Upload is a producer-submitted broadcast item and its pipeline state.
type Upload struct {
	ID          int64
	Title       string
	Author      string
	Description string
	ShowID      int64
	Medium      Medium
	AirAt       time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	OriginalKey  string
	OptimizedKey string
	WaveformKey  string
	CoverKey     string

	WaveformStatus     Status
	OptimizationStatus Status
	ExportStatus       Status

	OptimizationLog string
	Duration        time.Duration
	PlatformID      int
}

// HasAirDate reports whether a scheduled air datetime is set.
func (u Upload) HasAirDate() bool {
	return !u.AirAt.IsZero()
}

// Exported reports whether the upload already carries a platform identifier.
// Its presence forbids a new export run.
func (u Upload) Exported() bool {
	return u.PlatformID != 0
}

// Show is the recurring program an upload belongs to.
type Show struct {
	ID             int64
	Name           string
	Description    string
	PlatformShowID int
	CoverKey       string
}
