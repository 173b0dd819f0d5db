// Package audio analyzes and optimizes submitted audio files.
//
// The Analyzer runs a single ffmpeg pass combining silencedetect and
// loudnorm to find silence intervals and measure EBU R128 loudness. The
// Optimizer uses that measurement to trim leading and trailing silence down
// to a configurable allowance, normalize loudness in linear mode and encode
// MP3 with ID3 tags. Internal silence is reported, never removed.
//
// All subprocess work goes through the Engine interface so tests can supply
// canned ffmpeg output.
package audio
