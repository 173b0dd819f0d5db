package upload_test

import (
	"testing"

	"github.com/alex-berlin-tv/rafo/internal/upload"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct {
		from, to upload.Status
	}{
		{upload.StatusPending, upload.StatusRunning},
		{upload.StatusRunning, upload.StatusDone},
		{upload.StatusRunning, upload.StatusDoneWithWarnings},
		{upload.StatusRunning, upload.StatusError},
	}
	for _, tc := range allowed {
		if err := tc.from.ValidateTransition(tc.to); err != nil {
			t.Fatalf("expected %s -> %s to be allowed: %v", tc.from, tc.to, err)
		}
	}

	forbidden := []struct {
		from, to upload.Status
	}{
		{upload.StatusRunning, upload.StatusRunning},
		{upload.StatusPending, upload.StatusDone},
		{upload.StatusError, upload.StatusRunning},
		{upload.StatusDone, upload.StatusRunning},
	}
	for _, tc := range forbidden {
		if tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestStatusHelpers(t *testing.T) {
	if !upload.StatusDoneWithWarnings.Succeeded() || upload.StatusError.Succeeded() {
		t.Fatal("unexpected Succeeded classification")
	}
	if upload.StatusRunning.IsTerminal() || !upload.StatusError.IsTerminal() {
		t.Fatal("unexpected IsTerminal classification")
	}
	if status, ok := upload.ParseStatus(" Done_With_Warnings "); !ok || status != upload.StatusDoneWithWarnings {
		t.Fatalf("unexpected parse result: %q %v", status, ok)
	}
	if _, ok := upload.ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestMediumPolicies(t *testing.T) {
	if upload.MediumPodcast.HasDepublication() {
		t.Fatal("podcasts must not expire")
	}
	for _, medium := range []upload.Medium{upload.MediumRadio, upload.MediumTV, upload.MediumNews} {
		if !medium.HasDepublication() {
			t.Fatalf("expected %s to carry a depublication date", medium)
		}
		if medium.NeedsLicensingWarning() {
			t.Fatalf("did not expect licensing warning for %s", medium)
		}
	}
	if _, err := upload.ParseMedium("vinyl"); err == nil {
		t.Fatal("expected unknown medium to fail")
	}
	if medium, err := upload.ParseMedium("Podcast"); err != nil || medium != upload.MediumPodcast {
		t.Fatalf("unexpected medium parse: %q %v", medium, err)
	}
}
