package export

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/omnia"
	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

func (o *Orchestrator) load(ctx context.Context, r *run) (Event, error) {
	u, err := o.records.GetUpload(ctx, r.id)
	if err != nil {
		return Event{}, err
	}
	r.upload = u
	r.refnr = upload.ReferenceNumber(*u, o.policy.Location)

	var ev Event
	ev.Details.Add("Upload", fmt.Sprintf("u-%05d", u.ID))
	ev.Details.Add("Title", u.Title)
	ev.Details.Add("Reference", r.refnr)
	if u.ShowID != 0 {
		show, err := o.records.GetShow(ctx, u.ShowID)
		if err != nil {
			return ev, err
		}
		r.show = show
		ev.Details.Add("Show", show.Name)
	}
	return ev, nil
}

func (o *Orchestrator) guard(ctx context.Context, r *run) (Event, error) {
	if r.upload.Exported() {
		var ev Event
		ev.Details.Add("Platform ID", strconv.Itoa(r.upload.PlatformID))
		ev.Description = "already exported, clear platform id to re-export"
		return ev, services.Wrap(services.ErrGuardViolation, stageExport, "guard",
			fmt.Sprintf("upload already has platform id %d", r.upload.PlatformID), nil)
	}
	ok, err := o.records.TryStartExport(ctx, r.id)
	if err != nil {
		return Event{}, err
	}
	if !ok {
		return Event{Description: "another export is running or the export is not resettable"},
			services.Wrap(services.ErrGuardViolation, stageExport, "guard",
				fmt.Sprintf("export status %s does not allow a new run", r.upload.ExportStatus), nil)
	}
	r.claimed = true
	return Event{Description: "export claimed"}, nil
}

func (o *Orchestrator) lookupShow(ctx context.Context, r *run) (Event, error) {
	if r.show == nil || r.show.PlatformShowID == 0 {
		return Event{State: StateWarning, Description: "upload has no platform show"}, nil
	}
	var ev Event
	ev.Details.Add("Show ID", strconv.Itoa(r.show.PlatformShowID))
	if o.shows == nil {
		ev.State = StateWarning
		ev.Description = "show lookup unavailable"
		return ev, nil
	}
	remote, err := o.shows.ShowByID(ctx, r.show.PlatformShowID)
	if err != nil {
		ev.State = StateWarning
		ev.Description = fmt.Sprintf("show lookup failed: %v", err)
		return ev, nil
	}
	ev.Details.Add("Platform show", remote.Title)
	return ev, nil
}

func (o *Orchestrator) uploadMedia(ctx context.Context, r *run) (Event, error) {
	key := r.upload.OptimizedKey
	if key == "" {
		return Event{Description: "no optimized file, run the optimization first"},
			services.Wrap(services.ErrNotFound, stageExport, "media-upload", "optimized file missing", nil)
	}
	exists, err := o.media.Exists(ctx, key)
	if err != nil {
		return Event{}, err
	}
	if !exists {
		return Event{Description: "optimized file is missing from storage"},
			services.Wrap(services.ErrNotFound, stageExport, "media-upload", "optimized file "+key+" not in storage", nil)
	}
	sourceURL, err := o.media.URL(ctx, key)
	if err != nil {
		return Event{}, err
	}
	itemID, err := o.platform.UploadFromURL(ctx, sourceURL, path.Base(key), r.refnr)
	if err != nil {
		return Event{}, err
	}
	r.itemID = itemID

	var ev Event
	ev.Details.Add("File", path.Base(key))
	ev.CopyableValues.Add("Platform ID", strconv.Itoa(itemID))
	return ev, nil
}

func (o *Orchestrator) checkReference(ctx context.Context, r *run) (Event, error) {
	items, err := o.platform.ItemsByRefnr(ctx, r.refnr)
	if err != nil {
		return Event{State: StateWarning, Description: fmt.Sprintf("reference check failed: %v", err)}, nil
	}
	var ev Event
	for _, item := range items {
		if item.ID == r.itemID {
			continue
		}
		ev.Details.Add(strconv.Itoa(item.ID), item.Title)
	}
	if len(ev.Details) == 0 {
		ev.Description = "reference number is unique"
		return ev, nil
	}
	ev.State = StateWarning
	lines := make([]string, 0, len(ev.Details))
	for _, pair := range ev.Details {
		lines = append(lines, pair.Label+": "+pair.Value)
	}
	ev.Description = fmt.Sprintf("reference number %s is already used by %s", r.refnr, strings.Join(lines, ", "))
	return ev, nil
}

func (o *Orchestrator) setMetadata(ctx context.Context, r *run) (Event, error) {
	u := r.upload
	desc := u.Description
	if desc == "" && r.show != nil {
		desc = r.show.Description
	}
	r.meta = omnia.ItemMetadata{
		Title:       u.Title,
		Description: desc,
		Refnr:       r.refnr,
		ReleaseDate: u.AirAt,
	}
	if u.HasAirDate() {
		r.window.ValidFrom = u.AirAt.Add(o.policy.PublicationDelay)
		if u.Medium.HasDepublication() {
			r.window.ValidUntil = u.AirAt.Add(o.policy.Availability + o.policy.PublicationDelay)
		}
	}

	var ev Event
	ev.Details.Add("Title", r.meta.Title)
	ev.Details.Add("Reference", r.meta.Refnr)
	ev.Details.Add("Release", o.formatTime(r.meta.ReleaseDate))
	ev.Details.Add("Valid from", o.formatTime(r.window.ValidFrom))
	ev.Details.Add("Valid until", o.formatTime(r.window.ValidUntil))

	if err := o.platform.UpdateMetadata(ctx, r.itemID, r.meta); err != nil {
		ev.State = StateError
		ev.Description = fmt.Sprintf("metadata update failed: %v", err)
		return ev, nil
	}
	if err := o.platform.UpdateRestrictions(ctx, r.itemID, r.window); err != nil {
		ev.State = StateError
		ev.Description = fmt.Sprintf("restriction update failed: %v", err)
		return ev, nil
	}

	switch {
	case u.Medium.NeedsLicensingWarning():
		ev.State = StateWarning
		ev.Description = "podcast stays online indefinitely, confirm music licensing"
	case !u.HasAirDate():
		ev.Description = "no air date set, publication window left open"
	}
	return ev, nil
}

func (o *Orchestrator) linkShows(ctx context.Context, r *run) (Event, error) {
	ids := make([]int, 0, len(o.policy.AlwaysLinkedShows)+1)
	seen := make(map[int]bool)
	add := func(id int) {
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if r.show != nil {
		add(r.show.PlatformShowID)
	}
	for _, id := range o.policy.AlwaysLinkedShows {
		add(id)
	}

	var ev Event
	if len(ids) == 0 {
		ev.Description = "no shows to link"
		return ev, nil
	}
	var failed []string
	for _, id := range ids {
		if err := o.platform.ConnectShow(ctx, r.itemID, id); err != nil {
			failed = append(failed, fmt.Sprintf("%d (%v)", id, err))
			ev.Details.Add(strconv.Itoa(id), "failed")
			continue
		}
		ev.Details.Add(strconv.Itoa(id), "linked")
	}
	if len(failed) > 0 {
		ev.State = StateWarning
		ev.Description = "could not link " + strings.Join(failed, ", ")
	}
	return ev, nil
}

func (o *Orchestrator) setCover(ctx context.Context, r *run) (Event, error) {
	key := r.upload.CoverKey
	source := "upload"
	if key == "" && r.show != nil {
		key = r.show.CoverKey
		source = "show"
	}
	if key == "" {
		return Event{Description: "skipped"}, nil
	}
	var ev Event
	ev.Details.Add("Source", source)
	coverURL, err := o.media.URL(ctx, key)
	if err == nil {
		err = o.platform.SetCoverFromURL(ctx, r.itemID, coverURL)
	}
	if err != nil {
		ev.State = StateWarning
		ev.Description = fmt.Sprintf("cover not set: %v", err)
	}
	return ev, nil
}

func (o *Orchestrator) validate(ctx context.Context, r *run) (Event, error) {
	item, err := o.platform.ItemByID(ctx, r.itemID)
	if err != nil {
		return Event{Description: fmt.Sprintf("item %d could not be read back", r.itemID)}, err
	}

	var ev Event
	check := func(label, want, got string) {
		if want != got {
			ev.Details.Add(label, fmt.Sprintf("expected %q, got %q", want, got))
		}
	}
	checkTime := func(label string, want, got time.Time) {
		if want.IsZero() {
			return
		}
		if got.IsZero() || want.Unix() != got.Unix() {
			ev.Details.Add(label, fmt.Sprintf("expected %s, got %s", o.formatTime(want), o.formatTime(got)))
		}
	}
	check("Title", r.meta.Title, item.Title)
	check("Description", r.meta.Description, item.Description)
	check("Reference", r.meta.Refnr, item.Refnr)
	checkTime("Release", r.meta.ReleaseDate, item.ReleaseDate)
	checkTime("Valid from", r.window.ValidFrom, item.ValidFrom)
	checkTime("Valid until", r.window.ValidUntil, item.ValidUntil)

	if len(ev.Details) > 0 {
		r.mismatch = true
		mismatch := services.Wrap(services.ErrValidationMismatch, stageExport, "validation",
			fmt.Sprintf("%d field(s) differ on item %d", len(ev.Details), r.itemID), nil)
		ev.State = StateError
		ev.Description = mismatch.Error()
		return ev, nil
	}
	ev.Description = "all fields match"
	return ev, nil
}

func (o *Orchestrator) finalize(ctx context.Context, r *run) (Event, error) {
	status := upload.StatusDone
	if r.degraded {
		status = upload.StatusDoneWithWarnings
	}
	var ev Event
	ev.Details.Add("Status", status.Label())
	if err := o.records.FinishExport(ctx, r.id, r.itemID, status); err != nil {
		ev.Description = fmt.Sprintf("platform id %d not saved: %v", r.itemID, err)
		ev.CopyableValues.Add("Platform ID", strconv.Itoa(r.itemID))
		return ev, err
	}
	r.claimed = false
	ev.CopyableValues.Add("Platform ID", strconv.Itoa(r.itemID))
	if r.mismatch {
		ev.State = StateWarning
		ev.Description = "published, but the platform item differs from the requested metadata"
	}
	return ev, nil
}
