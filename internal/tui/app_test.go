package tui

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sant0-9/memomate/internal/config"
	"github.com/sant0-9/memomate/internal/intent"
	"github.com/sant0-9/memomate/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	mu    sync.Mutex
	users []string
	err   error
}

func (s *stubProvider) Name() string { return "Groq" }

func (s *stubProvider) Ping(context.Context) error { return nil }

func (s *stubProvider) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, req.Messages[len(req.Messages)-1].Content)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: "answer"}, nil
}

func newTestApp(t *testing.T, provider llm.Provider) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.APIKey = "gsk_test"

	a := NewApp(cfg)
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	a.useProvider(provider)
	return a
}

// drain runs a command and everything it batches, returning the messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// submit types input, presses enter and feeds the outcome back.
func submit(t *testing.T, a *App, input string) {
	t.Helper()
	a.state.input.SetValue(input)
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range drain(cmd) {
		if _, ok := msg.(outcomeMsg); ok {
			a.Update(msg)
		}
	}
}

func TestNewAppWithoutKeyOpensSetup(t *testing.T) {
	cfg := config.DefaultConfig()
	a := NewApp(cfg)
	a.Init()

	assert.True(t, a.state.needsSetup)
	assert.Equal(t, viewSetup, a.view)
}

func TestTabCyclesTasks(t *testing.T) {
	a := newTestApp(t, &stubProvider{})

	var seen []intent.Task
	for i := 0; i < 5; i++ {
		seen = append(seen, a.state.task())
		a.Update(tea.KeyMsg{Type: tea.KeyTab})
	}

	assert.Equal(t, []intent.Task{
		intent.TaskQuiz, intent.TaskSummary, intent.TaskExplanation, intent.TaskAuto, intent.TaskQuiz,
	}, seen)
}

func TestSubmitTopic(t *testing.T) {
	sp := &stubProvider{}
	a := newTestApp(t, sp)
	a.Update(tea.KeyMsg{Type: tea.KeyTab}) // Summary

	submit(t, a, "Cells")

	assert.Equal(t, viewStudy, a.view)
	assert.False(t, a.state.processing)
	assert.Empty(t, a.state.input.Value())
	require.Len(t, sp.users, 1)
	assert.Contains(t, sp.users[0], "5-bullet summary of 'Cells'")
	assert.Equal(t, []string{"Cells"}, a.state.ledger.Topics())
	assert.Contains(t, a.renderHistory(80), "You: summary of Cells")
}

func TestHistoryNewestFirst(t *testing.T) {
	a := newTestApp(t, &stubProvider{})

	submit(t, a, "Atoms")
	submit(t, a, "Cells")

	h := a.renderHistory(80)
	assert.Less(t, strings.Index(h, "quiz on Cells"), strings.Index(h, "quiz on Atoms"))
}

func TestEmptyInputShowsNotice(t *testing.T) {
	sp := &stubProvider{}
	a := newTestApp(t, sp)

	submit(t, a, "   ")

	assert.True(t, a.state.noticeErr)
	assert.Equal(t, "Please enter a topic or upload a file.", a.state.notice)
	assert.Empty(t, sp.users)
	assert.Equal(t, 0, a.state.ledger.Len())
}

func TestFailedRequestStaysInHistory(t *testing.T) {
	sp := &stubProvider{err: errors.New("connection refused")}
	a := newTestApp(t, sp)

	submit(t, a, "Cells")

	assert.True(t, a.state.noticeErr)
	records := a.state.ledger.Queries()
	require.Len(t, records, 1)
	assert.True(t, records[0].Failed)
	assert.True(t, strings.HasPrefix(records[0].Response, "Error from Groq:"))
	assert.Empty(t, a.state.ledger.Topics())
}

func testDocx(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` +
		text + `</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestUploadCommandAndBarePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "biology notes.docx")
	require.NoError(t, os.WriteFile(path, testDocx(t, "Mitochondria make energy"), 0644))

	tests := []struct {
		name  string
		input string
	}{
		{name: "upload command", input: "/upload " + path},
		{name: "bare path", input: path},
		{name: "quoted path", input: `"` + path + `"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := &stubProvider{}
			a := newTestApp(t, sp)

			submit(t, a, tt.input)

			require.Len(t, sp.users, 1)
			assert.Contains(t, sp.users[0], "Explain 'Mitochondria make energy'")
			require.NotNil(t, a.state.document)
			assert.Equal(t, "biology notes.docx", a.state.document.Metadata.FileName)
			assert.Equal(t, []string{"biology notes"}, a.state.ledger.Topics())
			assert.Equal(t, "Uploaded File (biology notes.docx)", a.state.ledger.Queries()[0].Query)

			sidebar := a.renderSidebar()
			assert.Contains(t, sidebar, "Last upload")
			assert.Contains(t, sidebar, "Mitochondria")
		})
	}
}

func TestUploadWithoutText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0644))

	sp := &stubProvider{}
	a := newTestApp(t, sp)

	submit(t, a, "/upload "+path)

	assert.Empty(t, sp.users)
	assert.Equal(t, "Could not extract text from the uploaded file.", a.state.notice)
	assert.Equal(t, 0, a.state.ledger.Len())
}

func TestSlashCommands(t *testing.T) {
	a := newTestApp(t, &stubProvider{})

	submit(t, a, "/help")
	assert.Equal(t, viewHelp, a.view)

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, viewStudy, a.view)

	submit(t, a, "/settings")
	assert.Equal(t, viewSettings, a.view)

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	submit(t, a, "/nope")
	assert.True(t, a.state.noticeErr)
	assert.Contains(t, a.state.notice, "Unknown command")
}

func TestCleanPath(t *testing.T) {
	assert.Equal(t, "/tmp/my notes.pdf", cleanPath(`'/tmp/my notes.pdf'`))
	assert.Equal(t, "/tmp/my notes.pdf", cleanPath(`/tmp/my\ notes.pdf`))
	assert.Equal(t, "notes.docx", cleanPath("  notes.docx  "))
}

func TestWrapTextKeepsLines(t *testing.T) {
	got := wrapText("Q1. one two three\nA) four", 9)
	assert.Equal(t, "Q1. one\ntwo three\nA) four", got)
}

func TestSaveNotes(t *testing.T) {
	a := newTestApp(t, &stubProvider{})
	path := filepath.Join(t.TempDir(), "notes.md")

	submit(t, a, "/save "+path)
	assert.Equal(t, "Nothing to save yet", a.state.notice)

	submit(t, a, "Cells")
	a.state.input.SetValue("/save " + path)
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range drain(cmd) {
		if _, ok := msg.(savedMsg); ok {
			a.Update(msg)
		}
	}

	assert.Equal(t, "Notes saved to "+path, a.state.notice)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### quiz on Cells")
}

func TestSettingsOverview(t *testing.T) {
	a := newTestApp(t, &stubProvider{})
	a.state.config.APIKey = "gsk_1234567890"
	submit(t, a, "Cells")

	submit(t, a, "/settings")
	view := a.View()

	assert.Contains(t, view, "Study settings")
	assert.Contains(t, view, "gsk_****7890")
	assert.Contains(t, view, "this session: 1 questions, 1 topics")
	assert.NotContains(t, view, "gsk_1234567890")
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "not set", maskKey(""))
	assert.Equal(t, "****", maskKey("gsk_test"))
	assert.Equal(t, "gsk_****7890", maskKey("gsk_1234567890"))
}
