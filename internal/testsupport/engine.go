package testsupport

import (
	"context"
	"os"
	"sync"

	"github.com/alex-berlin-tv/rafo/internal/media/ffprobe"
)

// FakeEngine stands in for ffmpeg/ffprobe. Analysis runs return Analysis;
// every other run writes a placeholder file to its last argument.
type FakeEngine struct {
	mu sync.Mutex

	InputDuration  string
	OutputDuration string
	Analysis       string
	RunErr         error

	Calls   [][]string
	written map[string]bool
}

// NewFakeEngine returns an engine reporting a compliant 60 second file.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		InputDuration:  "60.000",
		OutputDuration: "60.000",
		Analysis: `[Parsed_loudnorm_1 @ 0x1]
{
	"input_i" : "-23.00",
	"input_tp" : "-2.00",
	"input_lra" : "4.00",
	"input_thresh" : "-33.00",
	"target_offset" : "0.00"
}
`,
	}
}

// Run implements audio.Engine.
func (f *FakeEngine) Run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, append([]string(nil), args...))
	for _, a := range args {
		if a == "null" {
			return []byte(f.Analysis), nil
		}
	}
	if f.RunErr != nil {
		return nil, f.RunErr
	}
	if len(args) == 0 {
		return nil, nil
	}
	out := args[len(args)-1]
	if err := os.WriteFile(out, []byte("rendered"), 0o644); err != nil {
		return nil, err
	}
	if f.written == nil {
		f.written = make(map[string]bool)
	}
	f.written[out] = true
	return nil, nil
}

// Probe implements audio.Engine.
func (f *FakeEngine) Probe(_ context.Context, path string) (ffprobe.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(path); err != nil {
		return ffprobe.Result{}, err
	}
	duration := f.InputDuration
	if f.written[path] {
		duration = f.OutputDuration
	}
	return ffprobe.Result{Format: ffprobe.Format{Duration: duration}}, nil
}

// CallCount returns the number of ffmpeg runs.
func (f *FakeEngine) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
