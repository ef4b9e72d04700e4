package progressui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tarragon-labs/compsize/internal/progress"
)

// Run drives the live progress display until ctx is cancelled, polling
// tracker on a ticker. Callers run this in its own goroutine alongside
// pipeline.Run and cancel ctx once the pipeline returns, so the display
// stops before the canonical report prints.
func Run(ctx context.Context, tracker *progress.Tracker) error {
	p := tea.NewProgram(newModel(tracker))

	go func() {
		<-ctx.Done()
		p.Send(quitMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progressui: %w", err)
	}
	return nil
}
