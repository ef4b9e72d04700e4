// Package progressui implements the optional live view shown while a
// crawl is in flight: a single bubbletea program that polls an
// internal/progress.Tracker on a ticker and renders a lipgloss-styled
// status line. It never touches the canonical report; it renders in place
// on the normal terminal screen (not the alternate screen), so its last
// frame stays visible, and it is shut down before the report prints.
package progressui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tarragon-labs/compsize/internal/progress"
)

const tickInterval = 80 * time.Millisecond

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#005B9A", Dark: "#4FA3FF"})
	statStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#E6E6E6"})
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"})
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6F6F6F"})
)

type tickMsg time.Time

type model struct {
	tracker *progress.Tracker
	start   time.Time
	snap    progress.Snapshot
	done    bool
}

func newModel(tracker *progress.Tracker) model {
	return model{tracker: tracker, start: time.Now()}
}

func (m model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.snap = m.tracker.Snapshot()
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case quitMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	elapsed := time.Since(m.start).Round(time.Second)
	line := labelStyle.Render("compsize ") +
		statStyle.Render(humanize.Comma(int64(m.snap.Walked))+" found, "+
			humanize.Comma(int64(m.snap.Processed))+" scanned")
	if m.snap.Errors > 0 {
		line += "  " + errStyle.Render(humanize.Comma(int64(m.snap.Errors))+" errors")
	}
	line += "  " + helpStyle.Render(elapsed.String()+" | q to hide")
	return line + "\n"
}

// quitMsg tells the program to stop on the next Update, used by Run to
// wind the display down once the pipeline finishes.
type quitMsg struct{}
