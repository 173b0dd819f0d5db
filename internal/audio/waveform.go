package audio

import (
	"context"
	"fmt"

	"github.com/alex-berlin-tv/rafo/internal/services"
)

const (
	waveformWidth  = 600
	waveformHeight = 252
	waveformColor  = "#3399cc"
)

// Waveform renders overview images of audio files.
type Waveform struct {
	engine Engine
}

// NewWaveform constructs a waveform renderer.
func NewWaveform(engine Engine) *Waveform {
	return &Waveform{engine: engine}
}

// Render draws a PNG waveform of input to output.
func (w *Waveform) Render(ctx context.Context, input, output string) error {
	if _, err := w.engine.Run(ctx, waveformArgs(input, output)...); err != nil {
		return services.Wrap(services.ErrEncoding, "waveform", "render", "ffmpeg showwavespic", err)
	}
	return nil
}

func waveformArgs(input, output string) []string {
	filter := fmt.Sprintf("aformat=channel_layouts=mono,compand,showwavespic=s=%dx%d:colors=%s",
		waveformWidth, waveformHeight, waveformColor)
	return []string{
		"-hide_banner", "-nostats", "-nostdin", "-y",
		"-i", input,
		"-filter_complex", filter,
		"-frames:v", "1",
		"-f", "image2",
		output,
	}
}
