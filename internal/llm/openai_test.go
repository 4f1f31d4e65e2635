package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sant0-9/memomate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func chatReply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "llama3-70b-8192",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

func TestCompleteSendsSystemAndUser(t *testing.T) {
	var got capturedRequest
	var auth string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		chatReply(w, "  Photosynthesis turns light into sugar.\n")
	})

	p := NewOpenAICompatProvider(Options{
		Name:    "Groq",
		BaseURL: srv.URL + "/v1/",
		APIKey:  "gsk_test",
		Model:   "llama3-70b-8192",
	})

	resp, err := p.Complete(context.Background(), NewRequest("", "be helpful", "explain photosynthesis"))
	require.NoError(t, err)

	assert.Equal(t, "Photosynthesis turns light into sugar.", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	assert.Equal(t, "Bearer gsk_test", auth)
	assert.Equal(t, "llama3-70b-8192", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be helpful", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "explain photosynthesis", got.Messages[1].Content)
}

func TestCompleteAPIError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	})

	p := NewOpenAICompatProvider(Options{Name: "Groq", BaseURL: srv.URL, APIKey: "bad", Model: "m"})

	_, err := p.Complete(context.Background(), NewRequest("", "s", "u"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API Key")
}

func TestCompleteNoChoices(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})

	p := NewOpenAICompatProvider(Options{BaseURL: srv.URL, Model: "m"})

	_, err := p.Complete(context.Background(), NewRequest("", "s", "u"))
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestCompleteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewOpenAICompatProvider(Options{BaseURL: url, Model: "m", Timeout: time.Second})

	_, err := p.Complete(context.Background(), NewRequest("", "s", "u"))
	require.Error(t, err)
}

func TestCompleteHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	p := NewOpenAICompatProvider(Options{BaseURL: srv.URL, Model: "m"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Complete(ctx, NewRequest("", "s", "u"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestPing(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"llama3-70b-8192","object":"model"}]}`))
		})
		p := NewOpenAICompatProvider(Options{BaseURL: srv.URL, APIKey: "k"})
		assert.NoError(t, p.Ping(context.Background()))
	})

	t.Run("unauthorized", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
		})
		p := NewOpenAICompatProvider(Options{BaseURL: srv.URL, APIKey: "k"})
		assert.ErrorIs(t, p.Ping(context.Background()), ErrUnauthorized)
	})
}

func TestNewProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := NewProvider(cfg)
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)

	cfg.APIKey = "gsk"
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "Groq", p.Name())
}
