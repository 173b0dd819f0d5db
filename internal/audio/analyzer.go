package audio

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/services"
)

// Targets are the loudness normalization goals.
type Targets struct {
	Integrated float64
	TruePeak   float64
	Range      float64
}

// DefaultTargets follow EBU R128.
var DefaultTargets = Targets{Integrated: -23, TruePeak: -1, Range: 7}

// Analysis is the result of a single measurement pass over a file.
type Analysis struct {
	Duration time.Duration
	Silences []Silence
	Loudness Loudness
}

// Internal returns the silences that sit between program material.
func (a Analysis) Internal() []Silence {
	var out []Silence
	for _, s := range a.Silences {
		if s.Position == PositionInternal {
			out = append(out, s)
		}
	}
	return out
}

// WholeFile reports whether a single silence spans the entire file.
func (a Analysis) WholeFile() bool {
	if len(a.Silences) != 1 || a.Duration <= 0 {
		return false
	}
	s := a.Silences[0]
	return s.Start <= leadingTolerance && s.End >= a.Duration-trailingTolerance
}

// Leading returns the leading silence, if any.
func (a Analysis) Leading() (Silence, bool) {
	if len(a.Silences) > 0 && a.Silences[0].Position == PositionLeading {
		return a.Silences[0], true
	}
	return Silence{}, false
}

// Trailing returns the trailing silence, if any.
func (a Analysis) Trailing() (Silence, bool) {
	if n := len(a.Silences); n > 0 && a.Silences[n-1].Position == PositionTrailing {
		return a.Silences[n-1], true
	}
	return Silence{}, false
}

// Analyzer measures silence and loudness with one ffmpeg pass.
type Analyzer struct {
	engine  Engine
	floor   NoiseFloor
	minimum time.Duration
	targets Targets
}

// NewAnalyzer constructs an analyzer. A zero targets value selects DefaultTargets.
func NewAnalyzer(engine Engine, floor NoiseFloor, minimum time.Duration, targets Targets) *Analyzer {
	if targets == (Targets{}) {
		targets = DefaultTargets
	}
	return &Analyzer{engine: engine, floor: floor, minimum: minimum, targets: targets}
}

// Analyze probes path and measures it.
func (a *Analyzer) Analyze(ctx context.Context, path string) (Analysis, error) {
	probe, err := a.engine.Probe(ctx, path)
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrAnalysis, "analysis", "probe", "inspect source", err)
	}
	total := probe.Duration()
	if total <= 0 {
		return Analysis{}, services.Wrap(services.ErrAnalysis, "analysis", "probe", "source has no duration", nil)
	}

	output, err := a.engine.Run(ctx, a.args(path)...)
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrAnalysis, "analysis", "measure", "decode source", err)
	}
	loudness, err := ParseLoudness(output)
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrAnalysis, "analysis", "measure", "read loudness", err)
	}

	return Analysis{
		Duration: total,
		Silences: ParseSilences(output, total, a.minimum),
		Loudness: loudness,
	}, nil
}

func (a *Analyzer) args(path string) []string {
	filter := fmt.Sprintf("silencedetect=noise=%s:d=%s,loudnorm=I=%s:TP=%s:LRA=%s:print_format=json",
		a.floor, seconds(a.minimum),
		number(a.targets.Integrated), number(a.targets.TruePeak), number(a.targets.Range))
	return []string{
		"-hide_banner", "-nostats", "-nostdin",
		"-i", path,
		"-vn",
		"-af", filter,
		"-f", "null", "-",
	}
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
