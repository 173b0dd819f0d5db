package audio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Loudness is the EBU R128 measurement reported by the loudnorm filter.
type Loudness struct {
	Integrated   float64
	TruePeak     float64
	Range        float64
	Threshold    float64
	TargetOffset float64
}

// Measurable reports whether the values can be fed back into a linear
// loudnorm pass. Digital silence measures as -inf.
func (l Loudness) Measurable() bool {
	for _, v := range []float64{l.Integrated, l.TruePeak, l.Range, l.Threshold, l.TargetOffset} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type loudnormStats struct {
	InputI       string `json:"input_i"`
	InputTP      string `json:"input_tp"`
	InputLRA     string `json:"input_lra"`
	InputThresh  string `json:"input_thresh"`
	TargetOffset string `json:"target_offset"`
}

// ParseLoudness extracts the JSON block printed by loudnorm with
// print_format=json from ffmpeg output.
func ParseLoudness(output []byte) (Loudness, error) {
	key := bytes.LastIndex(output, []byte(`"input_i"`))
	if key < 0 {
		return Loudness{}, fmt.Errorf("loudnorm: no measurement in ffmpeg output")
	}
	start := bytes.LastIndexByte(output[:key], '{')
	end := bytes.IndexByte(output[key:], '}')
	if start < 0 || end < 0 {
		return Loudness{}, fmt.Errorf("loudnorm: truncated measurement")
	}
	var stats loudnormStats
	if err := json.Unmarshal(output[start:key+end+1], &stats); err != nil {
		return Loudness{}, fmt.Errorf("loudnorm: decode measurement: %w", err)
	}
	return Loudness{
		Integrated:   parseLoudnessValue(stats.InputI),
		TruePeak:     parseLoudnessValue(stats.InputTP),
		Range:        parseLoudnessValue(stats.InputLRA),
		Threshold:    parseLoudnessValue(stats.InputThresh),
		TargetOffset: parseLoudnessValue(stats.TargetOffset),
	}, nil
}

func parseLoudnessValue(value string) float64 {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "-inf":
		return math.Inf(-1)
	case "inf", "+inf":
		return math.Inf(1)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
