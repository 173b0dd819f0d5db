package audio

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Position classifies where a silence interval sits in the file.
type Position string

const (
	PositionLeading  Position = "leading"
	PositionTrailing Position = "trailing"
	PositionInternal Position = "internal"
)

const (
	// leadingTolerance absorbs the small offsets ffmpeg reports for a silence
	// starting at the very first sample.
	leadingTolerance = 10 * time.Millisecond
	// trailingTolerance absorbs the gap between the last reported silence_end
	// and the container duration.
	trailingTolerance = 100 * time.Millisecond
)

// Silence is one detected silence interval.
type Silence struct {
	Start    time.Duration
	End      time.Duration
	Position Position
}

// Duration returns the length of the interval.
func (s Silence) Duration() time.Duration {
	return s.End - s.Start
}

// NoiseFloor is the silence threshold passed to silencedetect, either a
// decibel level ("-60dB") or an amplitude ratio ("0.001").
type NoiseFloor string

var noiseFloorPattern = regexp.MustCompile(`^(-?[0-9]+(?:\.[0-9]+)?)\s*[dD][bB]$`)

// ParseNoiseFloor validates a configured noise tolerance.
func ParseNoiseFloor(value string) (NoiseFloor, error) {
	value = strings.TrimSpace(value)
	if m := noiseFloorPattern.FindStringSubmatch(value); m != nil {
		return NoiseFloor(m[1] + "dB"), nil
	}
	ratio, err := strconv.ParseFloat(value, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		return "", fmt.Errorf("noise floor %q: want a decibel level like -60dB or a ratio between 0 and 1", value)
	}
	return NoiseFloor(strconv.FormatFloat(ratio, 'f', -1, 64)), nil
}

var (
	silenceStartPattern = regexp.MustCompile(`silence_start:\s*(-?[0-9]+(?:\.[0-9]*)?(?:e-?[0-9]+)?)`)
	silenceEndPattern   = regexp.MustCompile(`silence_end:\s*(-?[0-9]+(?:\.[0-9]*)?(?:e-?[0-9]+)?)`)
)

// ParseSilences extracts silencedetect intervals from ffmpeg output. A start
// without a matching end runs to total. The result is sorted by start,
// overlapping intervals are merged, and intervals shorter than minimum are
// dropped. Every interval is classified relative to total.
func ParseSilences(output []byte, total, minimum time.Duration) []Silence {
	var (
		raw     []Silence
		open    bool
		current time.Duration
	)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if m := silenceStartPattern.FindStringSubmatch(line); m != nil {
			if open {
				raw = append(raw, Silence{Start: current, End: current})
			}
			current = clamp(parseSeconds(m[1]), total)
			open = true
			continue
		}
		if m := silenceEndPattern.FindStringSubmatch(line); m != nil && open {
			raw = append(raw, Silence{Start: current, End: clamp(parseSeconds(m[1]), total)})
			open = false
		}
	}
	if open {
		end := total
		if end < current {
			end = current
		}
		raw = append(raw, Silence{Start: current, End: end})
	}
	return normalizeSilences(raw, total, minimum)
}

func normalizeSilences(raw []Silence, total, minimum time.Duration) []Silence {
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].Start < raw[j].Start })

	merged := make([]Silence, 0, len(raw))
	for _, s := range raw {
		if s.End < s.Start {
			s.End = s.Start
		}
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}

	out := merged[:0]
	for _, s := range merged {
		if s.Duration() < minimum {
			continue
		}
		s.Position = classify(s, total)
		out = append(out, s)
	}
	return out
}

func classify(s Silence, total time.Duration) Position {
	switch {
	case s.Start <= leadingTolerance:
		return PositionLeading
	case total > 0 && s.End >= total-trailingTolerance:
		return PositionTrailing
	default:
		return PositionInternal
	}
}

func parseSeconds(value string) time.Duration {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
}

func clamp(d, total time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if total > 0 && d > total {
		return total
	}
	return d
}
