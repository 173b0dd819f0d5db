package audio

import (
	"fmt"
	"strings"
	"time"
)

// Severity grades an optimization log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Entry is one line of the optimization log.
type Entry struct {
	Severity Severity
	Message  string
}

// Report collects what the optimizer changed or noticed.
type Report struct {
	Entries  []Entry
	Duration time.Duration
}

func (r *Report) info(format string, args ...any) {
	r.Entries = append(r.Entries, Entry{Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warn(format string, args ...any) {
	r.Entries = append(r.Entries, Entry{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// HasWarnings reports whether any entry is a warning.
func (r Report) HasWarnings() bool {
	for _, e := range r.Entries {
		if e.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// Warnings counts warning entries.
func (r Report) Warnings() int {
	count := 0
	for _, e := range r.Entries {
		if e.Severity == SeverityWarning {
			count++
		}
	}
	return count
}

// Text renders the report as the persisted optimization log.
func (r Report) Text() string {
	var b strings.Builder
	for _, e := range r.Entries {
		label := "INFO"
		if e.Severity == SeverityWarning {
			label = "WARNING"
		}
		fmt.Fprintf(&b, "[%s] %s\n", label, e.Message)
	}
	fmt.Fprintf(&b, "Final duration: %s\n", Timestamp(r.Duration))
	return b.String()
}

// Timestamp formats d as HH:MM:SS.mmm.
func Timestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%03d", int64(h), int64(m), int64(s), int64(d/time.Millisecond))
}

func humanSeconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
