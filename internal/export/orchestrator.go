package export

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/omnia"
	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

const (
	stageExport    = "export"
	persistTimeout = 15 * time.Second
	dateLayout     = "02.01.2006 15:04"
)

// Records is the slice of the record store the export needs.
type Records interface {
	GetUpload(ctx context.Context, id int64) (*upload.Upload, error)
	GetShow(ctx context.Context, id int64) (*upload.Show, error)
	TryStartExport(ctx context.Context, id int64) (bool, error)
	FinishExport(ctx context.Context, id int64, platformID int, status upload.Status) error
}

// Platform is the publishing platform API.
type Platform interface {
	UploadFromURL(ctx context.Context, sourceURL, filename, refnr string) (int, error)
	ItemsByRefnr(ctx context.Context, refnr string) ([]omnia.Item, error)
	UpdateMetadata(ctx context.Context, id int, meta omnia.ItemMetadata) error
	UpdateRestrictions(ctx context.Context, id int, r omnia.Restrictions) error
	ConnectShow(ctx context.Context, id, showID int) error
	SetCoverFromURL(ctx context.Context, id int, imageURL string) error
	ItemByID(ctx context.Context, id int) (omnia.Item, error)
}

// ShowLookup resolves platform shows, usually through a cache.
type ShowLookup interface {
	ShowByID(ctx context.Context, id int) (omnia.Show, error)
}

// MediaLinker turns stored media into URLs the platform can fetch.
type MediaLinker interface {
	URL(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Notifier announces published items.
type Notifier interface {
	NotifyExportPublished(ctx context.Context, u upload.Upload, show upload.Show, platformID int) error
}

// Policy holds the publication rules applied to every export.
type Policy struct {
	PublicationDelay  time.Duration
	Availability      time.Duration
	AlwaysLinkedShows []int
	Location          *time.Location
}

// PolicyFromConfig derives the export policy from configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		PublicationDelay:  cfg.PublicationDelay(),
		Availability:      cfg.Availability(),
		AlwaysLinkedShows: append([]int(nil), cfg.Export.AlwaysLinkedShows...),
		Location:          cfg.Location(),
	}
}

// Outcome summarizes a finished run.
type Outcome struct {
	Status     upload.Status
	PlatformID int
	Err        error
}

// Orchestrator publishes uploads to the platform step by step.
type Orchestrator struct {
	policy   Policy
	records  Records
	platform Platform
	shows    ShowLookup
	media    MediaLinker
	notifier Notifier
	logger   *slog.Logger
}

// NewOrchestrator wires an orchestrator. shows and notifier may be nil.
func NewOrchestrator(policy Policy, records Records, platform Platform, shows ShowLookup, media MediaLinker, notifier Notifier, logger *slog.Logger) *Orchestrator {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &Orchestrator{
		policy:   policy,
		records:  records,
		platform: platform,
		shows:    shows,
		media:    media,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "export"),
	}
}

// run carries the state shared between the steps of one export.
type run struct {
	id       int64
	upload   *upload.Upload
	show     *upload.Show
	claimed  bool
	itemID   int
	refnr    string
	meta     omnia.ItemMetadata
	window   omnia.Restrictions
	degraded bool
	mismatch bool
}

type stepFunc func(ctx context.Context, r *run) (Event, error)

// Start runs the export in the background and streams its events. The
// channel is closed when the run ends or ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context, id int64) <-chan Event {
	events := make(chan Event, len(Targets)*2)
	go func() {
		defer close(events)
		o.Run(ctx, id, SinkFunc(func(e Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		}))
	}()
	return events
}

// Run executes every step in order, emitting a running event and exactly
// one terminal event per step. A fatal step ends the run without finalize.
func (o *Orchestrator) Run(ctx context.Context, id int64, sink Sink) Outcome {
	ctx = services.WithStage(services.WithUploadID(ctx, id), stageExport)
	logger := logging.WithContext(ctx, o.logger)
	started := time.Now()
	r := &run{id: id}

	steps := []struct {
		target Target
		title  string
		fn     stepFunc
	}{
		{TargetLoad, "Loading upload", o.load},
		{TargetGuard, "Checking export state", o.guard},
		{TargetShowLookup, "Looking up platform show", o.lookupShow},
		{TargetMediaUpload, "Creating media item", o.uploadMedia},
		{TargetReferenceCheck, "Checking reference number", o.checkReference},
		{TargetMetadata, "Setting metadata", o.setMetadata},
		{TargetLinking, "Linking shows", o.linkShows},
		{TargetCover, "Setting cover", o.setCover},
		{TargetValidation, "Validating item", o.validate},
		{TargetFinalize, "Finalizing export", o.finalize},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return o.abort(ctx, logger, r, step.target, err)
		}
		sink.Emit(Event{Target: step.target, Title: step.title, State: StateRunning})

		event, err := step.fn(ctx, r)
		event.Target = step.target
		if event.Title == "" {
			event.Title = step.title
		}
		if event.State == "" {
			event.State = StateDone
		}
		if err != nil {
			event.State = StateError
			if event.Description == "" {
				event.Description = err.Error()
			}
		}
		if event.State == StateWarning || (event.State == StateError && err == nil) {
			r.degraded = true
		}
		sink.Emit(event)

		if err != nil {
			return o.abort(ctx, logger, r, step.target, err)
		}
	}

	status := upload.StatusDone
	if r.degraded {
		status = upload.StatusDoneWithWarnings
	}
	logger.Info("export finished",
		logging.String(logging.FieldEventType, "export_finished"),
		logging.Int("platform_id", r.itemID),
		logging.String("status", string(status)),
		logging.Duration("elapsed", time.Since(started)),
	)
	o.notify(ctx, logger, r)
	return Outcome{Status: status, PlatformID: r.itemID}
}

// abort ends a run after a fatal step. Once the export is claimed the
// failure is persisted, together with the item ID when the remote item
// already exists.
func (o *Orchestrator) abort(ctx context.Context, logger *slog.Logger, r *run, target Target, err error) Outcome {
	outcome := Outcome{Status: upload.StatusError, PlatformID: r.itemID, Err: err}
	if !r.claimed && r.upload != nil {
		outcome.Status = services.FailureStatus(r.upload.ExportStatus, err)
	}
	logging.ErrorWithContext(logger, "export failed", "export_failed",
		logging.String("step", string(target)),
		logging.Int("platform_id", r.itemID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(err, r)),
	)
	if !r.claimed {
		return outcome
	}
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if perr := o.records.FinishExport(persistCtx, r.id, r.itemID, upload.StatusError); perr != nil {
		logging.WarnWithContext(logger, "failed to persist export failure", "export_persist_failed",
			logging.Error(perr),
			logging.String(logging.FieldImpact, "export stays running until reset"),
		)
	}
	return outcome
}

func hintFor(err error, r *run) string {
	switch {
	case errors.Is(err, services.ErrGuardViolation) && r.upload != nil && r.upload.Exported():
		return "clear platform id to re-export"
	case r.itemID != 0:
		return "the platform item exists; fix it there or reset the export"
	case errors.Is(err, services.ErrRemoteTransport):
		return "check platform availability and retry"
	default:
		return "check logs for details"
	}
}

func (o *Orchestrator) notify(ctx context.Context, logger *slog.Logger, r *run) {
	if o.notifier == nil || r.upload == nil || r.upload.Medium != upload.MediumNews {
		return
	}
	var show upload.Show
	if r.show != nil {
		show = *r.show
	}
	if err := o.notifier.NotifyExportPublished(ctx, *r.upload, show, r.itemID); err != nil {
		logging.WarnWithContext(logger, "export notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "newsroom is not notified"),
		)
	}
}

func (o *Orchestrator) formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(o.policy.Location).Format(dateLayout)
}
