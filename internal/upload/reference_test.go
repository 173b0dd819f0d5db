package upload_test

import (
	"testing"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/upload"
)

func TestReferenceNumberUsesLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	u := upload.Upload{ID: 42, CreatedAt: time.Date(2024, 1, 31, 8, 15, 0, 0, time.UTC)}
	if got := upload.ReferenceNumber(u, berlin); got != "240131-0915_42" {
		t.Fatalf("unexpected reference number %q", got)
	}
	if got := upload.ReferenceNumber(u, time.UTC); got != "240131-0815_42" {
		t.Fatalf("unexpected UTC reference number %q", got)
	}
}

func TestFileNameCombinesReferenceAndTitle(t *testing.T) {
	u := upload.Upload{ID: 7, Title: "Grüße aus Köln", CreatedAt: time.Date(2023, 12, 1, 18, 0, 0, 0, time.UTC)}
	if got := upload.FileName(u, time.UTC, ".mp3"); got != "231201-1800_7_gruesse-aus-koeln.mp3" {
		t.Fatalf("unexpected file name %q", got)
	}
}

func TestNormalizeFilename(t *testing.T) {
	cases := map[string]string{
		"Straßenfest  in Mitte":  "strassenfest-in-mitte",
		"Café Crème":             "cafe-creme",
		"Über/Unter: 50% (live)": "ueberunter-50-live",
		"already-clean_name":     "already-clean_name",
		"  ":                     "",
	}
	for input, want := range cases {
		if got := upload.NormalizeFilename(input); got != want {
			t.Fatalf("NormalizeFilename(%q) = %q, want %q", input, got, want)
		}
	}
}
