package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sant0-9/memomate/internal/config"
)

const settingsWidth = 54

func (a *App) renderSettings() string {
	switch a.state.settingsMode {
	case "provider":
		names := make([]string, len(config.Providers))
		for i, p := range config.Providers {
			names[i] = p.Name
		}
		return a.settingsPanel("Where should answers come from?", "",
			a.pickList(names, a.state.config.ProviderName()),
			"[Up/Down] Move  [Enter] Use  [Esc] Keep current")
	case "model":
		p := config.GetProvider(a.state.config.Provider)
		if p == nil || len(p.Models) == 0 {
			return a.settingsPanel("Pick a model", a.state.config.ProviderName()+" has no model list",
				[]string{"  Set model in config.yaml instead."}, "[Enter] Back")
		}
		return a.settingsPanel("Pick a model", "Answers from "+p.Name,
			a.pickList(p.Models, a.state.config.Model),
			"[Up/Down] Move  [Enter] Use  [Esc] Keep current")
	case "apikey":
		input := styleBox.Copy().
			Width(settingsWidth).
			BorderForeground(colorPrimary).
			Render(a.state.apiKeyInput.View())
		return a.settingsPanel("New API key", "Stored in "+configLocation(),
			[]string{input}, "[Enter] Save  [Esc] Cancel")
	default:
		return a.renderSettingsOverview()
	}
}

func (a *App) renderSettingsOverview() string {
	cfg := a.state.config

	source := styleBox.Copy().Width(settingsWidth).Render(strings.Join([]string{
		styleSubtitle.Render("Answers"),
		fmt.Sprintf("  %s / %s", cfg.ProviderName(), cfg.Model),
		fmt.Sprintf("  key %s", maskKey(cfg.APIKey)),
		fmt.Sprintf("  via %s", truncate(cfg.Endpoint(), settingsWidth-8)),
		"",
		styleSubtitle.Render("Revision"),
		fmt.Sprintf("  give up on a reply after %s", cfg.Timeout),
		fmt.Sprintf("  read the first %d characters of uploads", cfg.MaxUploadChars),
		fmt.Sprintf("  this session: %d questions, %d topics", a.state.ledger.Len(), len(a.state.ledger.Topics())),
	}, "\n"))

	actions := []string{
		"  [p] Switch provider   [m] Switch model",
		"  [k] Replace API key   [r] Run setup again",
	}
	if a.state.notice != "" && a.state.noticeErr {
		actions = append(actions, "", styleFailed.Render("  "+truncate(a.state.notice, settingsWidth-6)))
	}

	return a.settingsPanel("Study settings", "Changes are saved and keep this session's history",
		[]string{source, strings.Join(actions, "\n")}, "[Esc] Back to revising")
}

// settingsPanel stacks a title, an optional subtitle, the blocks and a key
// hint, centered in the window.
func (a *App) settingsPanel(title, subtitle string, blocks []string, hint string) string {
	center := func(s string) string {
		return lipgloss.PlaceHorizontal(a.width, lipgloss.Center, s)
	}

	parts := []string{center(lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Render(title))}
	if subtitle != "" {
		parts = append(parts, center(styleSubtitle.Render(subtitle)))
	}
	parts = append(parts, "")
	for _, block := range blocks {
		parts = append(parts, center(block), "")
	}
	parts = append(parts, center(styleStatusBar.Render(hint)))

	return a.centerVertically(strings.Join(parts, "\n"))
}

// pickList renders items with the cursor and a marker on the current value.
func (a *App) pickList(items []string, current string) []string {
	lines := make([]string, len(items))
	for i, item := range items {
		line := "  " + item
		if item == current {
			line += " *"
		}
		if i == a.state.settingsSelected {
			line = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Render("> " + strings.TrimPrefix(line, "  "))
		}
		lines[i] = line
	}
	return []string{styleBox.Copy().Width(settingsWidth).Render(strings.Join(lines, "\n"))}
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "not set"
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "****" + key[len(key)-4:]
	}
}

func configLocation() string {
	path, err := config.ConfigPath()
	if err != nil {
		return "your config file"
	}
	return path
}

func (a *App) openSettings() {
	a.view = viewSettings
	a.state.settingsMode = ""
	a.state.settingsSelected = 0
}

func (a *App) handleSettingsKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	cfg := a.state.config

	switch a.state.settingsMode {
	case "":
		switch msg.String() {
		case "p":
			a.state.settingsMode = "provider"
			a.state.settingsSelected = 0
			for i, p := range config.Providers {
				if p.ID == cfg.Provider {
					a.state.settingsSelected = i
				}
			}
		case "m":
			a.state.settingsMode = "model"
			a.state.settingsSelected = 0
			if p := config.GetProvider(cfg.Provider); p != nil {
				for i, m := range p.Models {
					if m == cfg.Model {
						a.state.settingsSelected = i
					}
				}
			}
		case "k":
			a.state.settingsMode = "apikey"
			a.state.apiKeyInput.Reset()
			a.state.apiKeyInput.EchoMode = textinput.EchoPassword
			a.state.apiKeyInput.Placeholder = "Paste your API key here..."
			a.state.apiKeyInput.Focus()
			return textinput.Blink, true
		case "r":
			a.state.needsSetup = true
			a.state.setupStep = 0
			a.view = viewSetup
		}
		return nil, true

	case "provider":
		switch msg.String() {
		case "up", "k":
			if a.state.settingsSelected > 0 {
				a.state.settingsSelected--
			}
		case "down", "j":
			if a.state.settingsSelected < len(config.Providers)-1 {
				a.state.settingsSelected++
			}
		case "enter":
			p := config.Providers[a.state.settingsSelected]
			if p.ID != cfg.Provider {
				cfg.Provider = p.ID
				cfg.Model = p.DefaultModel
				cfg.BaseURL = ""
				cfg.APIKey = ""
			}
			if cfg.Endpoint() == "" || (p.NeedsAPIKey && cfg.APIKey == "") {
				// The wizard asks for whatever is missing.
				a.state.needsSetup = true
				a.view = viewSetup
				a.state.selectedProvider = a.state.settingsSelected
				a.state.setupStep = 0
				return nil, true
			}
			return a.applySettings(), true
		}
		return nil, true

	case "model":
		p := config.GetProvider(cfg.Provider)
		if p == nil || len(p.Models) == 0 {
			if msg.String() == "enter" {
				a.state.settingsMode = ""
			}
			return nil, true
		}
		switch msg.String() {
		case "up", "k":
			if a.state.settingsSelected > 0 {
				a.state.settingsSelected--
			}
		case "down", "j":
			if a.state.settingsSelected < len(p.Models)-1 {
				a.state.settingsSelected++
			}
		case "enter":
			cfg.Model = p.Models[a.state.settingsSelected]
			return a.applySettings(), true
		}
		return nil, true

	case "apikey":
		if msg.String() == "enter" {
			cfg.APIKey = strings.TrimSpace(a.state.apiKeyInput.Value())
			return a.applySettings(), true
		}
	}

	return nil, false
}

// applySettings saves the config and reconnects. The session history stays.
func (a *App) applySettings() tea.Cmd {
	a.state.settingsMode = ""
	return a.finishSetup()
}
