package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sant0-9/memomate/internal/intent"
)

const logo = `
 ┳┳┓┏┓┳┳┓┏┓┳┳┓┏┓┏┳┓┏┓
 ┃┃┃┣ ┃┃┃┃┃┃┃┃┣┫ ┃ ┣
 ┛ ┗┗┛┛ ┗┗┛┛ ┗┛┗ ┻ ┗┛
`

const (
	sidebarWidth = 30
	headerHeight = 3
	footerHeight = 7

	previewChars = 120
)

// layout sizes the history viewport and input to the window.
func (a *App) layout() {
	w := a.width - sidebarWidth - 4
	if w < 20 {
		w = 20
	}
	h := a.height - headerHeight - footerHeight - 2
	if h < 3 {
		h = 3
	}
	a.state.history.Width = w
	a.state.history.Height = h
	a.state.input.Width = max(20, a.width-8)
	a.refreshHistory()
}

// refreshHistory re-renders the ledger, newest first, and scrolls to the top.
func (a *App) refreshHistory() {
	a.state.history.SetContent(a.renderHistory(a.state.history.Width - 2))
	a.state.history.GotoTop()
}

func (a *App) renderHistory(width int) string {
	records := a.state.ledger.Queries()
	if len(records) == 0 {
		return a.renderWelcome(width)
	}

	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteString(styleSubtitle.Render(strings.Repeat("─", max(1, width))))
			b.WriteString("\n")
		}
		b.WriteString(styleQuery.Render(wrapText("You: "+r.Query, width)))
		b.WriteString("\n")

		style := styleAnswer
		if r.Failed {
			style = styleFailed
		}
		b.WriteString(styleSubtitle.Render("AI:"))
		b.WriteString("\n")
		b.WriteString(style.Render(wrapText(r.Response, width)))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderWelcome(width int) string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		styleLogo.Render(logo),
		styleSubtitle.Render("Your exam revision assistant"),
		"",
		styleSubtitle.Render("Type a topic, pick a task with [Tab], or /upload your notes"),
	)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, content)
}

func (a *App) renderStudy() string {
	// Header
	title := styleLogo.Render("MemoMate") + styleSubtitle.Render("  exam revision")
	model := styleSubtitle.Render(a.modelLine())
	header := lipgloss.JoinVertical(lipgloss.Left, title, model, "")

	// Body: history and sidebar
	historyBox := styleBox.Copy().
		Width(a.state.history.Width + 2).
		Render(a.state.history.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, historyBox, " ", a.renderSidebar())

	// Footer
	inputBox := styleBox.Copy().
		Width(max(20, a.width-4)).
		BorderForeground(colorSecondary).
		Render(a.state.input.View())

	notice := ""
	if a.state.notice != "" {
		style := lipgloss.NewStyle().Foreground(colorSuccess)
		if a.state.noticeErr {
			style = styleFailed
		}
		notice = style.Render(truncate(a.state.notice, max(10, a.width-2)))
	}

	status := styleStatusBar.Render("[Enter] Revise  [Tab] Task  [PgUp/PgDn] Scroll  /upload <file>  /help  [Esc] Quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		a.renderTaskSelector(),
		inputBox,
		notice,
		status,
	)
}

func (a *App) renderTaskSelector() string {
	current := a.state.task()
	parts := []string{styleSubtitle.Render("What do you want?")}
	for _, t := range intent.Selectable {
		if t == current {
			parts = append(parts, styleTaskActive.Render("("+t.Label()+")"))
		} else {
			parts = append(parts, styleTaskIdle.Render(" "+t.Label()+" "))
		}
	}
	return strings.Join(parts, " ")
}

func (a *App) renderSidebar() string {
	var lines []string

	lines = append(lines, lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Render("Topics Revised"))
	topics := a.state.ledger.Topics()
	if len(topics) == 0 {
		lines = append(lines, styleSubtitle.Render("Nothing yet"))
	}
	for _, t := range topics {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ ")+truncate(t, sidebarWidth-6))
	}

	if doc := a.state.document; doc != nil {
		m := doc.Metadata
		lines = append(lines, "",
			lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Render("Last upload"),
			truncate(m.FileName, sidebarWidth-4),
		)
		info := fmt.Sprintf("%s, %s, %d words", strings.ToUpper(m.SourceFormat), m.FileSizeHuman(), m.WordCount)
		if m.PageCount != nil {
			info = fmt.Sprintf("%s, %d pages", info, *m.PageCount)
		}
		lines = append(lines, styleSubtitle.Render(wrapText(info, sidebarWidth-4)))
		if doc.Preview != "" {
			lines = append(lines, "", styleAnswer.Render(wrapText(truncate(doc.Preview, previewChars), sidebarWidth-4)))
		}
	}

	return styleBox.Copy().
		Width(sidebarWidth).
		Height(a.state.history.Height).
		Render(strings.Join(lines, "\n"))
}

func (a *App) modelLine() string {
	name := a.state.config.ProviderName()
	line := fmt.Sprintf("%s / %s", name, a.state.config.Model)
	if !a.state.providerReady {
		line += "  (connecting...)"
	}
	return line
}
