package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sant0-9/memomate/internal/config"
	"github.com/sant0-9/memomate/internal/document"
	"github.com/sant0-9/memomate/internal/intent"
	"github.com/sant0-9/memomate/internal/llm"
	"github.com/sant0-9/memomate/internal/pipeline"
	"github.com/sant0-9/memomate/internal/session"
)

type state struct {
	// Config
	config     *config.Config
	needsSetup bool

	// Setup wizard state
	setupStep        int
	selectedProvider int
	apiKeyInput      textinput.Model

	// Settings state
	settingsMode     string
	settingsSelected int

	// Study session
	ledger  *session.Ledger
	taskIdx int
	input   textinput.Model
	history viewport.Model

	// Last uploaded document
	document *document.Document

	// One-line feedback under the input
	notice    string
	noticeErr bool

	// Processing
	processing       bool
	processingLabel  string
	pipelineProgress *pipeline.Progress
	spinner          spinner.Model

	// Provider
	provider      llm.Provider
	pipeline      *pipeline.Pipeline
	providerReady bool
	providerError error
}

func newState() *state {
	input := textinput.New()
	input.Placeholder = "Enter a topic (e.g., Newton's Laws) or /upload <file>"
	input.CharLimit = 500
	input.Width = 60

	apiKey := textinput.New()
	apiKey.Placeholder = "Paste your API key here..."
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.CharLimit = 200
	apiKey.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleSpinner

	return &state{
		ledger:      session.NewLedger(),
		input:       input,
		apiKeyInput: apiKey,
		history:     viewport.New(60, 10),
		spinner:     sp,
	}
}

// task is the task picked in the selector.
func (s *state) task() intent.Task {
	return intent.Selectable[s.taskIdx%len(intent.Selectable)]
}

func (s *state) nextTask() {
	s.taskIdx = (s.taskIdx + 1) % len(intent.Selectable)
}

func (s *state) setNotice(msg string, isErr bool) {
	s.notice = msg
	s.noticeErr = isErr
}
