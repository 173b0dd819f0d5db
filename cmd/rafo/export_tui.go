package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alex-berlin-tv/rafo/internal/export"
	"github.com/alex-berlin-tv/rafo/internal/exportview"
)

type eventMsg struct {
	Event export.Event
}

type streamClosedMsg struct{}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A40000"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D7AF00"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5F87AF")).Width(16)
)

// exportModel renders the live export board.
type exportModel struct {
	uploadID int64
	events   <-chan export.Event
	board    *exportview.Board
	cancel   context.CancelFunc
	width    int
}

func newExportModel(uploadID int64, events <-chan export.Event, board *exportview.Board, cancel context.CancelFunc) exportModel {
	return exportModel{uploadID: uploadID, events: events, board: board, cancel: cancel}
}

func (m exportModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m exportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case eventMsg:
		m.board.Apply(msg.Event)
		return m, waitForEvent(m.events)
	case streamClosedMsg:
		m.board.Close()
		return m, tea.Quit
	}
	return m, nil
}

func (m exportModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Export u-%05d", m.uploadID)))
	b.WriteString("\n")
	if m.board.Closed() {
		b.WriteString(mutedStyle.Render(summaryLine(m.board)))
	} else {
		b.WriteString(mutedStyle.Render("publishing, press q to abort"))
	}
	b.WriteString("\n\n")

	for _, e := range m.board.Rows() {
		b.WriteString(renderEventRow(e))
		b.WriteString("\n")
	}
	return b.String()
}

func renderEventRow(e export.Event) string {
	icon, style := stateIcon(e.State)
	line := fmt.Sprintf(" %s %s", style.Render(icon), e.Title)
	if e.Description != "" {
		line += " " + mutedStyle.Render(e.Description)
	}
	for _, pair := range e.Details {
		line += "\n     " + labelStyle.Render(pair.Label) + " " + pair.Value
	}
	return line
}

func stateIcon(state export.State) (string, lipgloss.Style) {
	switch state {
	case export.StateDone:
		return "✓", doneStyle
	case export.StateWarning:
		return "!", warnStyle
	case export.StateError:
		return "✗", errorStyle
	default:
		return "⚙", runningStyle
	}
}

func summaryLine(board *exportview.Board) string {
	finalized, worst := board.Outcome()
	switch {
	case !finalized:
		return "export aborted"
	case worst == export.StateDone:
		return "export finished"
	default:
		return "export finished with warnings"
	}
}

func waitForEvent(events <-chan export.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{Event: e}
	}
}

func runExportTUI(uploadID int64, events <-chan export.Event, board *exportview.Board, cancel context.CancelFunc) error {
	program := tea.NewProgram(newExportModel(uploadID, events, board, cancel))
	if _, err := program.Run(); err != nil {
		cancel()
		return fmt.Errorf("export view: %w", err)
	}
	for e := range events {
		board.Apply(e)
	}
	board.Close()
	return nil
}
