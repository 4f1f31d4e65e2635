package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sant0-9/memomate/internal/config"
	"github.com/sant0-9/memomate/internal/metrics"
	"github.com/sant0-9/memomate/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd)
		},
	}
}

// runTUI starts the terminal UI. A missing key is not fatal here: the UI
// opens its setup wizard instead.
func runTUI(_ *cobra.Command) error {
	cfg, err := config.Resolve()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, defaultLogFile())
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting tui", "provider", cfg.Provider, "model", cfg.Model, "version", version)

	app := tui.NewApp(cfg,
		tui.WithLogger(logger),
		tui.WithMetrics(metrics.NewMetrics()),
	)
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	app.SetProgram(p)

	if _, err := p.Run(); err != nil {
		logger.Error("tui stopped", "error", err)
		return err
	}
	return nil
}
