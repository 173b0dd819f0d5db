package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/alex-berlin-tv/rafo/internal/media/ffprobe"
)

// Engine runs the audio processing subprocesses. FFmpeg is the production
// implementation; tests substitute canned output.
type Engine interface {
	// Run executes ffmpeg with args and returns its diagnostic (stderr) output,
	// where filters such as silencedetect and loudnorm report their results.
	Run(ctx context.Context, args ...string) ([]byte, error)
	// Probe inspects a media file.
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// FFmpeg is the subprocess-backed Engine.
type FFmpeg struct {
	FFmpegBinary  string
	FFprobeBinary string
}

// NewFFmpeg builds an engine for the given binaries, falling back to PATH lookups.
func NewFFmpeg(ffmpegBinary, ffprobeBinary string) *FFmpeg {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &FFmpeg{FFmpegBinary: ffmpegBinary, FFprobeBinary: ffprobeBinary}
}

// Run implements Engine.
func (f *FFmpeg) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, f.FFmpegBinary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stderr.Bytes(), fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String(), 600))
	}
	return stderr.Bytes(), nil
}

// Probe implements Engine.
func (f *FFmpeg) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	return ffprobe.Inspect(ctx, f.FFprobeBinary, path)
}

func tail(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return "..." + value[len(value)-limit:]
}
