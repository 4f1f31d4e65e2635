package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sant0-9/memomate/internal/config"
	"github.com/sant0-9/memomate/internal/document"
	"github.com/sant0-9/memomate/internal/llm"
	"github.com/sant0-9/memomate/internal/logging"
	"github.com/sant0-9/memomate/internal/metrics"
	"github.com/sant0-9/memomate/internal/pipeline"
	"github.com/sant0-9/memomate/internal/writer"
)

type view int

const (
	viewStudy view = iota
	viewSetup
	viewProcessing
	viewSettings
	viewHelp
	viewError
)

type App struct {
	width    int
	height   int
	view     view
	state    *state
	quitting bool

	program *tea.Program
	logger  *logging.Logger
	metrics *metrics.Metrics
}

type Option func(*App)

func WithLogger(l *logging.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// NewApp builds the study TUI. A config that does not validate (usually a
// missing API key) opens the setup wizard first.
func NewApp(cfg *config.Config, opts ...Option) *App {
	s := newState()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s.config = cfg
	if err := cfg.Validate(); err != nil {
		s.needsSetup = true
	}

	a := &App{
		view:   viewStudy,
		state:  s,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetProgram lets pipeline progress reach the running program.
func (a *App) SetProgram(p *tea.Program) {
	a.program = p
}

func (a *App) Init() tea.Cmd {
	if a.state.needsSetup {
		a.view = viewSetup
		return tea.Batch(tea.WindowSize(), textinput.Blink)
	}

	// Test provider connection
	return tea.Batch(
		tea.WindowSize(),
		textinput.Blink,
		a.testProvider(),
	)
}

func (a *App) testProvider() tea.Cmd {
	cfg := *a.state.config
	return func() tea.Msg {
		provider, err := llm.NewProvider(&cfg)
		if err != nil {
			return providerErrorMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := provider.Ping(ctx); err != nil {
			return providerErrorMsg{err: err, provider: provider}
		}

		return providerReadyMsg{provider: provider}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd, handled := a.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if handled {
			return a, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()

	case setupCompleteMsg:
		a.state.needsSetup = false
		a.state.setNotice("Settings saved", false)
		a.view = viewStudy
		return a, a.testProvider()

	case setupErrorMsg:
		a.state.setNotice(msg.Error(), true)
		return a, nil

	case providerReadyMsg:
		a.useProvider(msg.provider)
		a.state.providerError = nil
		a.state.input.Focus()
		return a, textinput.Blink

	case providerErrorMsg:
		a.logger.Warn("provider check failed", "provider", a.state.config.ProviderName(), "error", msg.err)
		a.state.providerError = msg.err
		if msg.provider != nil {
			// Requests can still be tried; failures show up in the history.
			a.useProvider(msg.provider)
		}
		if a.view == viewStudy {
			a.view = viewError
		}
		return a, nil

	case savedMsg:
		if msg.err != nil {
			a.logger.Warn("export failed", "error", msg.err)
			a.state.setNotice(msg.err.Error(), true)
		} else {
			a.state.setNotice("Notes saved to "+msg.path, false)
		}
		return a, nil

	case progressMsg:
		p := pipeline.Progress(msg)
		a.state.pipelineProgress = &p
		return a, nil

	case outcomeMsg:
		a.finishProcessing(msg)
		return a, textinput.Blink

	case spinner.TickMsg:
		if a.state.processing {
			var cmd tea.Cmd
			a.state.spinner, cmd = a.state.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Update text inputs based on view
	switch {
	case a.view == viewSetup && a.state.setupStep != 0,
		a.view == viewSettings && a.state.settingsMode == "apikey":
		var cmd tea.Cmd
		a.state.apiKeyInput, cmd = a.state.apiKeyInput.Update(msg)
		cmds = append(cmds, cmd)
	case a.view == viewStudy:
		var cmd tea.Cmd
		a.state.input, cmd = a.state.input.Update(msg)
		cmds = append(cmds, cmd)
		if _, isKey := msg.(tea.KeyMsg); !isKey {
			a.state.history, cmd = a.state.history.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

// handleKey reports handled=true when the key must not reach the inputs.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, keys.Quit) {
		switch {
		case a.view == viewSettings && a.state.settingsMode != "":
			a.state.settingsMode = ""
			a.state.apiKeyInput.Reset()
			return nil, true
		case a.view == viewSettings || a.view == viewHelp || a.view == viewError:
			a.view = viewStudy
			return nil, true
		case a.view == viewSetup && a.state.setupStep != 0:
			// Go back to provider selection
			a.state.setupStep = 0
			a.state.apiKeyInput.Reset()
			return nil, true
		}
		a.quitting = true
		return tea.Quit, true
	}

	// View-specific handling
	switch a.view {
	case viewSetup:
		return a.handleSetupKey(msg)
	case viewSettings:
		return a.handleSettingsKey(msg)
	case viewError:
		return a.handleErrorKey(msg)
	case viewHelp, viewProcessing:
		return nil, true
	case viewStudy:
		return a.handleStudyKey(msg)
	}

	return nil, false
}

func (a *App) handleStudyKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Tab):
		a.state.nextTask()
		return nil, true
	case key.Matches(msg, keys.PageUp):
		a.state.history.HalfViewUp()
		return nil, true
	case key.Matches(msg, keys.PageDown):
		a.state.history.HalfViewDown()
		return nil, true
	case key.Matches(msg, keys.Enter):
		return a.handleInput(), true
	}
	return nil, false
}

func (a *App) handleErrorKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "r":
		a.view = viewStudy
		a.state.providerError = nil
		return a.testProvider(), true
	case "s":
		a.openSettings()
		return nil, true
	}
	return nil, true
}

func (a *App) handleInput() tea.Cmd {
	input := strings.TrimSpace(a.state.input.Value())
	if input == "" {
		a.state.setNotice(userMessage(pipeline.ErrEmptyInput), true)
		return nil
	}

	// Handle slash commands
	if strings.HasPrefix(input, "/") {
		fields := strings.Fields(input)
		switch strings.ToLower(fields[0]) {
		case "/help", "/h":
			a.view = viewHelp
			a.state.input.Reset()
			return nil
		case "/settings", "/s":
			a.state.input.Reset()
			a.openSettings()
			return nil
		case "/quit", "/q":
			a.quitting = true
			return tea.Quit
		case "/save":
			path := cleanPath(strings.TrimSpace(input[len(fields[0]):]))
			a.state.input.Reset()
			return a.saveNotes(path)
		case "/upload", "/u":
			path := strings.TrimSpace(input[len(fields[0]):])
			if path == "" {
				a.state.setNotice("Usage: /upload <path to .pdf or .docx>", true)
				return nil
			}
			return a.startUpload(cleanPath(path))
		default:
			if path := cleanPath(input); isFile(path) {
				return a.startUpload(path)
			}
			a.state.setNotice("Unknown command "+fields[0]+", type /help", true)
			return nil
		}
	}

	if path := cleanPath(input); document.Supported(path) && isFile(path) {
		return a.startUpload(path)
	}

	return a.startAsk(input)
}

func (a *App) ready() bool {
	if a.state.pipeline == nil {
		if a.state.providerError != nil {
			a.state.setNotice("Not connected to "+a.state.config.ProviderName()+", check /settings", true)
		} else {
			a.state.setNotice("Still connecting to "+a.state.config.ProviderName()+"...", true)
		}
		return false
	}
	return !a.state.processing
}

func (a *App) startAsk(topic string) tea.Cmd {
	if !a.ready() {
		return nil
	}

	req := pipeline.Request{Topic: topic, Task: a.state.task()}
	label := req.Task.Label() + ": " + topic
	p, ledger := a.state.pipeline, a.state.ledger

	a.beginProcessing(label)
	return tea.Batch(a.state.spinner.Tick, func() tea.Msg {
		out, err := p.Ask(context.Background(), ledger, req)
		return outcomeMsg{outcome: out, err: err}
	})
}

func (a *App) startUpload(path string) tea.Cmd {
	if !a.ready() {
		return nil
	}

	p, ledger := a.state.pipeline, a.state.ledger

	a.beginProcessing("Upload: " + filepath.Base(path))
	return tea.Batch(a.state.spinner.Tick, func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return outcomeMsg{err: goerr.Wrap(err, "failed to read file", goerr.V("path", path))}
		}
		out, err := p.Upload(context.Background(), ledger, filepath.Base(path), data)
		return outcomeMsg{outcome: out, err: err}
	})
}

// saveNotes exports the session as Markdown, to path or a timestamped file
// in the working directory.
func (a *App) saveNotes(path string) tea.Cmd {
	if a.state.ledger.Len() == 0 {
		a.state.setNotice("Nothing to save yet", true)
		return nil
	}
	if path == "" {
		path = writer.DefaultFileName(time.Now())
	}

	notes := writer.FromLedger("", a.state.ledger)
	return func() tea.Msg {
		if err := notes.Save(path); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{path: path}
	}
}

func (a *App) beginProcessing(label string) {
	a.state.input.Reset()
	a.state.setNotice("", false)
	a.state.processing = true
	a.state.processingLabel = label
	a.state.pipelineProgress = nil
	a.view = viewProcessing
}

func (a *App) finishProcessing(msg outcomeMsg) {
	a.state.processing = false
	a.state.pipelineProgress = nil
	a.view = viewStudy

	switch {
	case msg.err != nil:
		a.logger.Warn("request rejected", "error", msg.err)
		a.state.setNotice(userMessage(msg.err), true)
	case msg.outcome.Failed:
		a.state.setNotice("The request failed, see the history below", true)
	default:
		if msg.outcome.Document != nil {
			a.state.document = msg.outcome.Document
			note := "File uploaded: " + msg.outcome.Document.Metadata.FileName
			if msg.outcome.Truncated {
				note += " (only the beginning was sent)"
			}
			a.state.setNotice(note, false)
		}
	}

	a.refreshHistory()
}

// useProvider swaps in a provider and the pipeline around it. The session
// ledger is kept.
func (a *App) useProvider(provider llm.Provider) {
	cfg := a.state.config
	p := pipeline.NewPipeline(provider,
		pipeline.WithModel(cfg.Model),
		pipeline.WithTimeout(cfg.Timeout),
		pipeline.WithMaxUploadChars(cfg.MaxUploadChars),
		pipeline.WithLogger(a.logger),
		pipeline.WithMetrics(a.metrics),
	)
	p.SetProgressCallback(func(pr pipeline.Progress) {
		if a.program != nil {
			a.program.Send(progressMsg(pr))
		}
	})

	a.state.provider = provider
	a.state.pipeline = p
	a.state.providerReady = true
}

func (a *App) handleSetupKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch a.state.setupStep {
	case 0: // Provider selection
		switch msg.String() {
		case "up", "k":
			if a.state.selectedProvider > 0 {
				a.state.selectedProvider--
			}
		case "down", "j":
			if a.state.selectedProvider < len(config.Providers)-1 {
				a.state.selectedProvider++
			}
		case "enter":
			provider := config.Providers[a.state.selectedProvider]
			a.state.config.Provider = provider.ID
			a.state.config.Model = provider.DefaultModel
			a.state.config.BaseURL = ""
			a.state.setNotice("", false)

			if a.state.config.Endpoint() == "" {
				a.state.setupStep = 2
				a.state.apiKeyInput.EchoMode = textinput.EchoNormal
				a.state.apiKeyInput.Placeholder = "https://host/v1"
				a.state.apiKeyInput.Focus()
				return textinput.Blink, true
			}
			if provider.NeedsAPIKey {
				return a.askAPIKey(), true
			}
			// Skip to save
			return a.finishSetup(), true
		}
		return nil, true

	case 1: // API key entry
		if msg.String() == "enter" {
			a.state.config.APIKey = strings.TrimSpace(a.state.apiKeyInput.Value())
			return a.finishSetup(), true
		}

	case 2: // Base URL entry
		if msg.String() == "enter" {
			a.state.config.BaseURL = strings.TrimSpace(a.state.apiKeyInput.Value())
			if p := config.GetProvider(a.state.config.Provider); p != nil && p.NeedsAPIKey {
				return a.askAPIKey(), true
			}
			return a.finishSetup(), true
		}
	}

	return nil, false
}

func (a *App) askAPIKey() tea.Cmd {
	a.state.setupStep = 1
	a.state.apiKeyInput.Reset()
	a.state.apiKeyInput.EchoMode = textinput.EchoPassword
	a.state.apiKeyInput.Placeholder = "Paste your API key here..."
	a.state.apiKeyInput.Focus()
	return textinput.Blink
}

func (a *App) finishSetup() tea.Cmd {
	cfg := *a.state.config
	a.state.apiKeyInput.Reset()
	a.state.setupStep = 0
	return func() tea.Msg {
		if err := cfg.Validate(); err != nil {
			return setupErrorMsg{err}
		}
		if err := cfg.Save(); err != nil {
			return setupErrorMsg{err}
		}
		return setupCompleteMsg{}
	}
}

type setupCompleteMsg struct{}
type setupErrorMsg struct{ error }
type providerReadyMsg struct{ provider llm.Provider }
type providerErrorMsg struct {
	err      error
	provider llm.Provider
}
type savedMsg struct {
	path string
	err  error
}
type progressMsg pipeline.Progress
type outcomeMsg struct {
	outcome *pipeline.Outcome
	err     error
}

// userMessage turns pipeline errors into the sentence shown to the student.
func userMessage(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput):
		return "Please enter a topic or upload a file."
	case errors.Is(err, pipeline.ErrNoText):
		return "Could not extract text from the uploaded file."
	case errors.Is(err, os.ErrNotExist):
		return "File not found."
	default:
		return err.Error()
	}
}

// cleanPath undoes the quoting terminals add to dropped file paths.
func cleanPath(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.ReplaceAll(s, `\ `, " ")
	if strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			s = filepath.Join(home, s[2:])
		}
	}
	return s
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	switch a.view {
	case viewSetup:
		return a.renderSetup()
	case viewProcessing:
		return a.renderProcessing()
	case viewSettings:
		return a.renderSettings()
	case viewHelp:
		return a.renderHelp()
	case viewError:
		return a.renderError()
	default:
		return a.renderStudy()
	}
}
