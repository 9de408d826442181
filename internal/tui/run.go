package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/holdscan/internal/portfolio"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the viewer until the user quits or ctx is canceled.
func Run(ctx context.Context, a *portfolio.Allocation, cfg Config) error {
	if a == nil || len(a.Holdings) == 0 {
		return errors.New("nothing to show")
	}

	p := tea.NewProgram(New(a, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("viewer failed: %w", err)
	}
	return nil
}
