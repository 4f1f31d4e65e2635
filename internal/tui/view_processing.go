package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sant0-9/memomate/internal/pipeline"
)

func (a *App) renderProcessing() string {
	var b strings.Builder

	// Title
	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render(a.state.spinner.View() + " Revising")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// What was asked
	if a.state.processingLabel != "" {
		asked := styleSubtitle.Render("> " + truncate(a.state.processingLabel, 55))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, asked))
		b.WriteString("\n\n")
	}

	// Progress stages
	stages := []pipeline.Stage{pipeline.StageExtracting, pipeline.StagePrompting, pipeline.StageCompleting}
	current := pipeline.StagePrompting
	if a.state.pipelineProgress != nil {
		current = a.state.pipelineProgress.Stage
	}
	isUpload := strings.HasPrefix(a.state.processingLabel, "Upload:")

	var stageLines []string
	for _, stage := range stages {
		if stage == pipeline.StageExtracting && !isUpload {
			continue
		}

		var icon string
		var style lipgloss.Style

		if stage < current {
			// Completed
			icon = "[x]"
			style = lipgloss.NewStyle().Foreground(colorSuccess)
		} else if stage == current {
			// Current
			icon = "[>]"
			style = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
		} else {
			// Pending
			icon = "[ ]"
			style = lipgloss.NewStyle().Foreground(colorMuted)
		}

		stageLines = append(stageLines, style.Render(fmt.Sprintf("  %s  %-12s", icon, stage)))
	}

	stagesBox := styleBox.Copy().
		Width(min(60, a.width-4)).
		Render(strings.Join(stageLines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, stagesBox))
	b.WriteString("\n\n")

	// Message
	if a.state.pipelineProgress != nil && a.state.pipelineProgress.Message != "" {
		msg := styleSubtitle.Render(truncate(a.state.pipelineProgress.Message, 60))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, msg))
	}

	return a.centerVertically(b.String())
}
