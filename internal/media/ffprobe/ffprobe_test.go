package ffprobe

import (
	"math"
	"testing"
	"time"
)

func TestResultHelpers(t *testing.T) {
	result, err := Parse([]byte(`{
		"streams": [{"index": 0, "codec_type": "audio", "codec_name": "mp3", "sample_rate": "48000", "channels": 2}],
		"format": {"duration": "183.512000", "size": "5872384", "tags": {"TITLE": "240301-0930_1_test.mp3"}}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.Duration() != 183512*time.Millisecond {
		t.Fatalf("unexpected duration: %v", result.Duration())
	}
	if result.SizeBytes() != 5872384 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.Tag("title") != "240301-0930_1_test.mp3" {
		t.Fatalf("unexpected title tag: %q", result.Tag("title"))
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.Duration() != 0 {
		t.Fatalf("expected zero duration, got %v", result.Duration())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}
