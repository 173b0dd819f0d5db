// Package ffprobe runs ffprobe and decodes its JSON report.
//
// The audio engine uses Result to read container duration, the audio stream
// layout and existing tags of an original before optimizing it.
package ffprobe
