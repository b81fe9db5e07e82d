package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/desertthunder/ytmp/internal/ui"
	"github.com/urfave/cli/v3"
)

// Monitor launches the dashboard for a running proxy.
func (r *Runner) Monitor(ctx context.Context, cmd *cli.Command) error {
	// Logs would draw over the dashboard, so they only go to the configured file.
	logger, closer, err := shared.NewConfiguredLogger(io.Discard, r.config.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()
	r.logger = logger

	model := ui.NewModel(ctx, ui.NewAPISource(r.api), cmd.Duration("interval"))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running monitor: %w", err)
	}

	return nil
}
