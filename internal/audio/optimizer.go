package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

// loudnessTolerance is the deviation from the target below which a
// correction is not worth reporting.
const loudnessTolerance = 1.0

// Settings configure the optimizer.
type Settings struct {
	NoiseFloor    NoiseFloor
	MinSilence    time.Duration
	CropAllowance time.Duration
	BitRateKbps   int
	SampleRate    int
	Targets       Targets
}

// SettingsFromConfig derives optimizer settings from the audio configuration.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	if cfg == nil {
		return Settings{}, services.Wrap(services.ErrConfiguration, "audio", "settings", "configuration unavailable", nil)
	}
	floor, err := ParseNoiseFloor(cfg.Audio.NoiseTolerance)
	if err != nil {
		return Settings{}, services.Wrap(services.ErrConfiguration, "audio", "settings", "noise tolerance", err)
	}
	return Settings{
		NoiseFloor:    floor,
		MinSilence:    cfg.SilenceDuration(),
		CropAllowance: cfg.CropAllowance(),
		BitRateKbps:   cfg.Audio.BitRate,
		SampleRate:    cfg.Audio.SampleRate,
		Targets: Targets{
			Integrated: cfg.Audio.TargetLoudness,
			TruePeak:   cfg.Audio.TruePeak,
			Range:      cfg.Audio.LoudnessRange,
		},
	}, nil
}

// Tags are the ID3 tags written to the optimized file besides the title.
type Tags struct {
	Artist  string
	Album   string
	Date    string
	Comment string
}

// Request describes one optimization run.
type Request struct {
	Input  string
	Output string
	// Title is the visible file name of the output.
	Title string
	Tags  Tags
}

// Result is the outcome of a successful optimization run.
type Result struct {
	Status   upload.Status
	Duration time.Duration
	Report   Report
}

// Optimizer trims, normalizes and encodes submitted audio.
type Optimizer struct {
	engine   Engine
	analyzer *Analyzer
	settings Settings
	logger   *slog.Logger
}

// NewOptimizer constructs an optimizer.
func NewOptimizer(engine Engine, settings Settings, logger *slog.Logger) *Optimizer {
	if settings.Targets == (Targets{}) {
		settings.Targets = DefaultTargets
	}
	if settings.BitRateKbps <= 0 {
		settings.BitRateKbps = 256
	}
	if settings.SampleRate <= 0 {
		settings.SampleRate = 48000
	}
	if settings.NoiseFloor == "" {
		settings.NoiseFloor = "-60dB"
	}
	return &Optimizer{
		engine:   engine,
		analyzer: NewAnalyzer(engine, settings.NoiseFloor, settings.MinSilence, settings.Targets),
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "audio-optimizer"),
	}
}

// Trim is the portion of the source kept after silence removal.
type Trim struct {
	Start time.Duration
	End   time.Duration
}

// Optimize runs analysis, trimming, normalization and encoding.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Title) == "" {
		return Result{}, services.Wrap(services.ErrEncoding, "optimization", "tag", "title is required", nil)
	}
	logger := logging.WithContext(ctx, o.logger)

	analysis, err := o.analyzer.Analyze(ctx, req.Input)
	if err != nil {
		return Result{}, err
	}

	var report Report
	trim := o.plan(analysis, &report)
	correcting := o.reportLoudness(analysis.Loudness, analysis.WholeFile(), &report)

	args := o.encodeArgs(req, trim, analysis.Loudness, correcting)
	if _, err := o.engine.Run(ctx, args...); err != nil {
		return Result{}, services.Wrap(services.ErrEncoding, "optimization", "encode", "ffmpeg encode", err)
	}

	probe, err := o.engine.Probe(ctx, req.Output)
	if err != nil {
		return Result{}, services.Wrap(services.ErrEncoding, "optimization", "probe", "inspect output", err)
	}
	report.Duration = probe.Duration()
	if report.Duration <= 0 {
		return Result{}, services.Wrap(services.ErrEncoding, "optimization", "probe", "output has no duration", nil)
	}

	status := upload.StatusDone
	if report.HasWarnings() {
		status = upload.StatusDoneWithWarnings
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "audio_optimized"),
		logging.String("status", string(status)),
		logging.Duration("duration", report.Duration),
		logging.Int("warnings", report.Warnings()),
		logging.Bool("normalized", correcting),
	}
	if correcting {
		attrs = append(attrs,
			logging.Float64("input_lufs", analysis.Loudness.Integrated),
			logging.Float64("input_true_peak", analysis.Loudness.TruePeak),
			logging.Float64("target_lufs", o.settings.Targets.Integrated),
		)
	}
	logger.Info("audio optimized", logging.Args(attrs...)...)
	return Result{Status: status, Duration: report.Duration, Report: report}, nil
}

// plan decides the kept range and records trims and silence warnings.
func (o *Optimizer) plan(analysis Analysis, report *Report) Trim {
	trim := Trim{Start: 0, End: analysis.Duration}
	allowance := o.settings.CropAllowance

	if analysis.WholeFile() {
		report.warn("the file is silent over its entire length (%s); nothing was trimmed", humanSeconds(analysis.Duration))
		return trim
	}

	if lead, ok := analysis.Leading(); ok {
		if cut := cropCut(lead.Duration(), allowance); cut > 0 {
			trim.Start = lead.Start + cut
			report.info("removed %s of leading silence", humanSeconds(cut))
		}
	}
	if tail, ok := analysis.Trailing(); ok {
		silence := analysis.Duration - tail.Start
		if cut := cropCut(silence, allowance); cut > 0 {
			trim.End = analysis.Duration - cut
			report.info("removed %s of trailing silence", humanSeconds(cut))
		}
	}
	for _, s := range analysis.Internal() {
		report.warn("silence of %s at %s", humanSeconds(s.Duration()), Timestamp(s.Start))
	}
	return trim
}

// cropCut is the amount of silence removed so that at most allowance remains.
func cropCut(silence, allowance time.Duration) time.Duration {
	if allowance < 0 {
		allowance = 0
	}
	cut := silence - allowance
	if cut < 0 {
		return 0
	}
	return cut
}

func (o *Optimizer) reportLoudness(measured Loudness, silent bool, report *Report) bool {
	if !measured.Measurable() {
		if !silent {
			report.warn("loudness could not be measured; normalization skipped")
		}
		return false
	}
	delta := o.settings.Targets.Integrated - measured.Integrated
	if math.Abs(delta) > loudnessTolerance {
		report.info("loudness corrected from %.1f LUFS to %.1f LUFS (%+.1f LU)",
			measured.Integrated, o.settings.Targets.Integrated, delta)
	}
	return true
}

func (o *Optimizer) encodeArgs(req Request, trim Trim, measured Loudness, normalize bool) []string {
	filters := []string{
		fmt.Sprintf("atrim=start=%s:end=%s", seconds(trim.Start), seconds(trim.End)),
		"asetpts=PTS-STARTPTS",
	}
	if normalize {
		t := o.settings.Targets
		filters = append(filters, fmt.Sprintf(
			"loudnorm=I=%s:TP=%s:LRA=%s:measured_I=%s:measured_TP=%s:measured_LRA=%s:measured_thresh=%s:offset=%s:linear=true:print_format=summary",
			number(t.Integrated), number(t.TruePeak), number(t.Range),
			number(measured.Integrated), number(measured.TruePeak), number(measured.Range),
			number(measured.Threshold), number(measured.TargetOffset),
		))
	}
	filters = append(filters, fmt.Sprintf("aresample=%d", o.settings.SampleRate))

	args := []string{
		"-hide_banner", "-nostats", "-nostdin", "-y",
		"-i", req.Input,
		"-vn", "-map_metadata", "-1",
		"-af", strings.Join(filters, ","),
		"-c:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", o.settings.BitRateKbps),
		"-ar", fmt.Sprintf("%d", o.settings.SampleRate),
		"-id3v2_version", "3",
		"-metadata", "title=" + req.Title,
	}
	for _, tag := range []struct{ key, value string }{
		{"artist", req.Tags.Artist},
		{"album", req.Tags.Album},
		{"date", req.Tags.Date},
		{"comment", req.Tags.Comment},
	} {
		if v := strings.TrimSpace(tag.value); v != "" {
			args = append(args, "-metadata", tag.key+"="+v)
		}
	}
	return append(args, "-f", "mp3", req.Output)
}
