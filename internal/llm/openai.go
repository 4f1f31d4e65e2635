package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrNoChoices    = errors.New("no response choices returned")
	ErrUnauthorized = errors.New("invalid API key")
)

// OpenAICompatProvider talks to any endpoint that speaks the OpenAI
// chat-completion protocol: Groq, OpenAI, OpenRouter, Ollama's /v1 and so on.
type OpenAICompatProvider struct {
	name   string
	model  string
	client *openai.Client
}

type Options struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewOpenAICompatProvider(opts Options) *OpenAICompatProvider {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	name := opts.Name
	if name == "" {
		name = "OpenAI"
	}

	return &OpenAICompatProvider{
		name:   name,
		model:  opts.Model,
		client: openai.NewClientWithConfig(cfg),
	}
}

func (p *OpenAICompatProvider) Name() string {
	return p.name
}

func (p *OpenAICompatProvider) Ping(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return goerr.Wrap(ErrUnauthorized, "ping failed", goerr.V("provider", p.name))
		}
		return goerr.Wrap(err, "cannot connect to provider", goerr.V("provider", p.name))
	}
	return nil
}

func (p *OpenAICompatProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, goerr.Wrap(err, "completion rejected",
				goerr.V("provider", p.name),
				goerr.V("status", apiErr.HTTPStatusCode),
				goerr.V("model", model))
		}
		return nil, goerr.Wrap(err, "completion request failed",
			goerr.V("provider", p.name),
			goerr.V("model", model))
	}

	if len(resp.Choices) == 0 {
		return nil, goerr.Wrap(ErrNoChoices, "empty completion", goerr.V("provider", p.name))
	}

	return &CompletionResponse{
		Content:      strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		result[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return result
}
