package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// truncate shortens text to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// wrapText word-wraps each line of text to maxWidth, keeping line breaks.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 60
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if lipgloss.Width(line) <= maxWidth {
			out = append(out, line)
			continue
		}

		var b strings.Builder
		lineLen := 0
		for i, word := range strings.Fields(line) {
			w := lipgloss.Width(word)
			if i > 0 {
				if lineLen+1+w > maxWidth {
					b.WriteString("\n")
					lineLen = 0
				} else {
					b.WriteString(" ")
					lineLen++
				}
			}
			b.WriteString(word)
			lineLen += w
		}
		out = append(out, b.String())
	}
	return strings.Join(out, "\n")
}

var (
	// Colors
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorSuccess   = lipgloss.Color("#10B981")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorWhite     = lipgloss.Color("#F9FAFB")

	// Logo style
	styleLogo = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	// Subtitle
	styleSubtitle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Box
	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	// Status bar
	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorMuted)

	// History entries
	styleQuery = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)
	styleAnswer = lipgloss.NewStyle().
			Foreground(colorWhite)
	styleFailed = lipgloss.NewStyle().
			Foreground(colorError)

	// Task selector
	styleTaskActive = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)
	styleTaskIdle = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleSpinner = lipgloss.NewStyle().
			Foreground(colorPrimary)
)
