package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sant0-9/memomate/internal/document"
	"github.com/sant0-9/memomate/internal/intent"
	"github.com/sant0-9/memomate/internal/llm"
	"github.com/sant0-9/memomate/internal/logging"
	"github.com/sant0-9/memomate/internal/metrics"
	"github.com/sant0-9/memomate/internal/prompts"
	"github.com/sant0-9/memomate/internal/session"
)

var (
	ErrEmptyInput = errors.New("please enter a topic or upload a file")
	ErrNoText     = errors.New("could not extract text from the uploaded file")
)

const (
	DefaultTimeout        = 60 * time.Second
	DefaultMaxUploadChars = 4000
)

// Stage represents a pipeline stage
type Stage int

const (
	StageExtracting Stage = iota
	StagePrompting
	StageCompleting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageExtracting:
		return "Extracting"
	case StagePrompting:
		return "Prompting"
	case StageCompleting:
		return "Completing"
	case StageDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Progress represents pipeline progress
type Progress struct {
	Stage       Stage
	StageIndex  int
	TotalStages int
	Message     string
}

// Request is a typed topic plus the task picked in the selector. TaskAuto
// lets the classifier decide from the topic text.
type Request struct {
	Topic string
	Task  intent.Task
}

// Outcome is the result of one user action. Failed outcomes carry the
// completion error and an inline error reply that was stored in the ledger.
type Outcome struct {
	Record session.Record
	Prompt prompts.Prompt
	Topic  string
	Failed bool
	Err    error

	// Set for uploads only.
	Document  *document.Document
	Truncated bool
}

// Pipeline runs user actions against a completion provider. It holds no
// session state and can be shared; every call gets the session's ledger.
type Pipeline struct {
	provider       llm.Provider
	model          string
	timeout        time.Duration
	maxUploadChars int
	logger         *logging.Logger
	metrics        *metrics.Metrics
	onProgress     func(Progress)
}

type Option func(*Pipeline)

func WithModel(model string) Option {
	return func(p *Pipeline) { p.model = model }
}

func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithMaxUploadChars(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxUploadChars = n
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline creates a new pipeline
func NewPipeline(provider llm.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider:       provider,
		timeout:        DefaultTimeout,
		maxUploadChars: DefaultMaxUploadChars,
		logger:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetProgressCallback sets the progress callback
func (p *Pipeline) SetProgressCallback(fn func(Progress)) {
	p.onProgress = fn
}

func (p *Pipeline) progress(stage Stage, msg string) {
	if p.onProgress != nil {
		p.onProgress(Progress{
			Stage:       stage,
			StageIndex:  int(stage),
			TotalStages: int(StageDone),
			Message:     msg,
		})
	}
}

// Ask answers a typed topic.
func (p *Pipeline) Ask(ctx context.Context, ledger *session.Ledger, req Request) (*Outcome, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ErrEmptyInput
	}

	query := topic
	task := req.Task
	if task == intent.TaskAuto {
		task = intent.Classify(topic)
	} else {
		query = prompts.QueryLabel(topic, task)
	}

	p.progress(StagePrompting, "Building prompt...")
	prompt := prompts.Build(query, task)

	return p.respond(ctx, ledger, query, prompt, prompt.Topic), nil
}

// Upload extracts text from an uploaded file and asks for an explanation of
// it, whatever task is selected.
func (p *Pipeline) Upload(ctx context.Context, ledger *session.Ledger, name string, data []byte) (*Outcome, error) {
	p.progress(StageExtracting, "Extracting text from "+name+"...")

	doc, err := document.Load(name, data)
	if err != nil {
		p.metrics.RecordExtraction(formatOf(name), false)
		p.logger.Warn("text extraction failed", "file", name, "error", err)
		return nil, goerr.Wrap(ErrNoText, "upload rejected", goerr.V("file", name), goerr.V("reason", err.Error()))
	}
	p.metrics.RecordExtraction(doc.Metadata.SourceFormat, true)

	return p.UploadDocument(ctx, ledger, doc)
}

// UploadDocument is Upload for text that has already been extracted.
func (p *Pipeline) UploadDocument(ctx context.Context, ledger *session.Ledger, doc *document.Document) (*Outcome, error) {
	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return nil, ErrNoText
	}

	text, truncated := Truncate(doc.Content, p.maxUploadChars)
	if truncated {
		p.logger.Debug("upload truncated", "file", doc.Metadata.FileName, "limit", p.maxUploadChars)
	}

	p.progress(StagePrompting, "Building prompt...")
	prompt := prompts.Build(text, intent.TaskExplanation)

	query := "Uploaded File"
	if doc.Metadata.FileName != "" {
		query = fmt.Sprintf("Uploaded File (%s)", doc.Metadata.FileName)
	}

	out := p.respond(ctx, ledger, query, prompt, doc.Metadata.Title)
	out.Document = doc
	out.Truncated = truncated
	return out, nil
}

// respond sends the prompt (unless it is a clarification), stores the
// exchange and, on success, the topic.
func (p *Pipeline) respond(ctx context.Context, ledger *session.Ledger, query string, prompt prompts.Prompt, topic string) *Outcome {
	out := &Outcome{Prompt: prompt, Topic: topic}

	if prompt.Clarification {
		p.metrics.RecordClarification()
		out.Record = ledger.RecordQuery(query, prompt.User)
		p.progress(StageDone, "Done")
		return out
	}

	p.progress(StageCompleting, "Waiting for "+p.provider.Name()+"...")
	reply, err := p.complete(ctx, prompt)

	out.Record = session.Record{Query: query, Task: prompt.Task, At: time.Now()}
	if err != nil {
		out.Failed = true
		out.Err = err
		out.Record.Failed = true
		out.Record.Response = fmt.Sprintf("Error from %s: %v", p.provider.Name(), err)
	} else {
		out.Record.Response = reply
		ledger.RecordTopic(topic)
	}
	ledger.Record(out.Record)

	p.progress(StageDone, "Done")
	return out
}

func (p *Pipeline) complete(ctx context.Context, prompt prompts.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.provider.Complete(ctx, llm.NewRequest(p.model, prompt.System, prompt.User))
	elapsed := time.Since(start)
	p.metrics.RecordCompletion(p.provider.Name(), prompt.Task.String(), err == nil, elapsed)

	if err != nil {
		p.logger.Warn("completion failed",
			"provider", p.provider.Name(),
			"task", prompt.Task.String(),
			"ms", elapsed.Milliseconds(),
			"error", err)
		return "", err
	}

	p.logger.Info("completion ok",
		"provider", p.provider.Name(),
		"task", prompt.Task.String(),
		"topic", prompt.Topic,
		"prompt_size_est", EstimateTokens(prompt.User),
		"usage_total", resp.Usage.TotalTokens,
		"ms", elapsed.Milliseconds())
	return resp.Content, nil
}

func formatOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		return strings.ToLower(name[i+1:])
	}
	return "unknown"
}
