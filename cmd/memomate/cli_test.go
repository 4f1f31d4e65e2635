package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sant0-9/memomate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	t.Setenv("MEMOMATE_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// fakeCompletions serves the chat-completion endpoint and records user prompts.
func fakeCompletions(t *testing.T, reply string) (*httptest.Server, *[]string) {
	t.Helper()
	var prompts []string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.Equal(t, "/chat/completions", r.URL.Path) {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &req))
		if len(req.Messages) > 0 {
			prompts = append(prompts, req.Messages[len(req.Messages)-1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":    "chatcmpl-1",
			"model": "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(ts.Close)
	return ts, &prompts
}

func useEndpoint(t *testing.T, url string) {
	t.Helper()
	t.Setenv("MEMOMATE_PROVIDER", "custom")
	t.Setenv("MEMOMATE_BASE_URL", url)
	t.Setenv("MEMOMATE_MODEL", "test-model")
	t.Setenv("MEMOMATE_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
}

func writeDocx(t *testing.T, dir, name, text string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` +
		text + `</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", stdout)
}

func TestExtract(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "notes.docx", "Ohm's law")

	stdout, _, err := executeCLI(t, "extract", path)
	require.NoError(t, err)
	assert.Equal(t, "Ohm's law\n", stdout)

	stdout, _, err = executeCLI(t, "extract", "--json", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"source_format": "docx"`)
	assert.Contains(t, stdout, `"content": "Ohm's law"`)
}

func TestExtractUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0644))

	_, _, err := executeCLI(t, "extract", path)
	require.Error(t, err)
}

func TestAskWithoutKeyFails(t *testing.T) {
	t.Setenv("MEMOMATE_PROVIDER", "groq")
	t.Setenv("MEMOMATE_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")

	_, _, err := executeCLI(t, "ask", "--task", "quiz", "Cells")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingAPIKey))
}

func TestAskTopic(t *testing.T) {
	ts, prompts := fakeCompletions(t, "Q1. What is a cell?")
	useEndpoint(t, ts.URL)

	stdout, _, err := executeCLI(t, "ask", "--task", "quiz", "Newton's", "Laws")
	require.NoError(t, err)
	assert.Equal(t, "Q1. What is a cell?\n", stdout)
	require.Len(t, *prompts, 1)
	assert.Contains(t, (*prompts)[0], "quiz questions on the topic 'Newton's Laws'")
}

func TestAskFile(t *testing.T) {
	ts, prompts := fakeCompletions(t, "It explains tides.")
	useEndpoint(t, ts.URL)
	path := writeDocx(t, t.TempDir(), "tides.docx", "The moon pulls the sea")

	stdout, _, err := executeCLI(t, "ask", "--task", "quiz", "--file", path)
	require.NoError(t, err)
	assert.Equal(t, "It explains tides.\n", stdout)
	require.Len(t, *prompts, 1)
	assert.Contains(t, (*prompts)[0], "Explain 'The moon pulls the sea'")
}

func TestAskClarificationSkipsEndpoint(t *testing.T) {
	ts, prompts := fakeCompletions(t, "unused")
	useEndpoint(t, ts.URL)

	stdout, _, err := executeCLI(t, "ask", "Newton's Laws")
	require.NoError(t, err)
	assert.Equal(t, "Please specify if you want a quiz, summary, or explanation.\n", stdout)
	assert.Empty(t, *prompts)
}

func TestAskUnknownTask(t *testing.T) {
	_, _, err := executeCLI(t, "ask", "--task", "essay", "Cells")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown task")
}
