package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/alex-berlin-tv/rafo/internal/deps"
	"github.com/alex-berlin-tv/rafo/internal/preflight"
	"github.com/alex-berlin-tv/rafo/internal/store"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	text := fmt.Sprintf("[%s]", kind)
	if message != "" {
		text += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", text)
	if colorize {
		return kind.color() + line + ansiReset
	}
	return line
}

func (k statusKind) String() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (k statusKind) color() string {
	switch k {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	default:
		return ansiBlue
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

// dependencyLines renders one line per binary followed by a summary of the
// missing required ones.
func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	var missing []string
	for _, dep := range statuses {
		if dep.Available {
			lines = append(lines, renderStatusLine(dep.Name, statusOK, fmt.Sprintf("Ready (command: %s)", dep.Command), colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		} else {
			missing = append(missing, dep.Name)
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing", statusError, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

// pipelineRows pivots the status summary into one row per pipeline with a
// column per status.
func pipelineRows(counts []store.StatusCount) ([]column, [][]string) {
	statuses := []string{"pending", "running", "done", "done_with_warnings", "error"}
	byPipeline := map[store.Pipeline]map[string]int{}
	for _, c := range counts {
		if byPipeline[c.Pipeline] == nil {
			byPipeline[c.Pipeline] = map[string]int{}
		}
		byPipeline[c.Pipeline][c.Status] += c.Count
	}

	pipelines := make([]string, 0, len(byPipeline))
	for p := range byPipeline {
		pipelines = append(pipelines, string(p))
	}
	sort.Strings(pipelines)

	columns := []column{{Header: "Pipeline"}}
	for _, s := range statuses {
		columns = append(columns, column{Header: s, Right: true})
	}
	rows := make([][]string, 0, len(pipelines))
	for _, p := range pipelines {
		row := []string{p}
		for _, s := range statuses {
			row = append(row, strconv.Itoa(byPipeline[store.Pipeline(p)][s]))
		}
		rows = append(rows, row)
	}
	return columns, rows
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
