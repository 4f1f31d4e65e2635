package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (a *App) renderHelp() string {
	var b strings.Builder

	// Title
	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render("Help")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// Commands
	commands := []string{
		"  <topic>          Revise a topic with the selected task",
		"  /upload <file>   Explain a .pdf or .docx file",
		"  /save [file]     Save the session as Markdown notes",
		"  /help, /h        Show this help",
		"  /settings, /s    Open settings",
		"  /quit, /q        Quit memomate",
		"",
		"  Or drop a .pdf/.docx path into the input",
	}

	commandsBox := styleBox.Copy().
		Width(60).
		Render(strings.Join(commands, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, commandsBox))
	b.WriteString("\n\n")

	// Tasks
	tasks := []string{
		"  Quiz          5 multiple-choice questions, options A-D",
		"  Summary       5 bullet points to revise before the exam",
		"  Explanation   5-8 plain lines",
		"  Auto          picked from your wording (quiz, summarize,",
		"                explain, what is, describe...)",
	}

	tasksTitle := styleSubtitle.Render("Tasks")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, tasksTitle))
	b.WriteString("\n\n")

	tasksBox := styleBox.Copy().
		Width(60).
		Render(strings.Join(tasks, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, tasksBox))
	b.WriteString("\n\n")

	// Keyboard shortcuts
	shortcuts := []string{
		"  Tab            Next task",
		"  PgUp/PgDn      Scroll history",
		"  Enter          Submit input",
		"  Esc            Go back / Quit",
	}

	shortcutsTitle := styleSubtitle.Render("Keyboard Shortcuts")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, shortcutsTitle))
	b.WriteString("\n\n")

	shortcutsBox := styleBox.Copy().
		Width(60).
		Render(strings.Join(shortcuts, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, shortcutsBox))
	b.WriteString("\n\n")

	// Instructions
	instructions := styleStatusBar.Render("[Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}
