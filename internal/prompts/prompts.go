package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/sant0-9/memomate/internal/intent"
)

//go:embed system.md
var systemPrompt string

// System is the persona sent as the system message with every request.
var System = strings.TrimSpace(systemPrompt)

// ClarificationMessage is returned instead of a completion when the task is unclear.
const ClarificationMessage = "Please specify if you want a quiz, summary, or explanation."

// taskFragments are removed from the raw request, in this order, to recover
// the topic. This is a plain substring strip: overlapping or repeated
// fragments can leave residue.
var taskFragments = []string{
	"quiz on",
	"summary of",
	"summarize",
	"explain",
	"give me",
	"describe",
}

// Prompt is a fully built request for one task.
type Prompt struct {
	Task  intent.Task
	Topic string

	// System and User are the two messages sent to the completion endpoint.
	System string
	User   string

	// Clarification is set when no request should be sent; User then holds
	// the message to show.
	Clarification bool
}

// NormalizeTopic strips task keywords from a request and trims the rest.
func NormalizeTopic(raw string) string {
	topic := raw
	for _, f := range taskFragments {
		topic = strings.ReplaceAll(topic, f, "")
	}
	return strings.TrimSpace(topic)
}

// Build turns a raw request and a task into the instruction for the model.
func Build(raw string, task intent.Task) Prompt {
	topic := NormalizeTopic(raw)

	var user string
	switch task {
	case intent.TaskQuiz:
		user = fmt.Sprintf("Generate 5 multiple-choice quiz questions on the topic '%s' for exam revision. "+
			"Each question must have 4 options labeled A, B, C, and D. "+
			"Clearly indicate the correct option after each question using the format: 'Correct Answer: <option letter>'", topic)
	case intent.TaskSummary:
		user = fmt.Sprintf("Provide a 5-bullet summary of '%s' that a student can quickly revise before an exam.", topic)
	case intent.TaskExplanation:
		user = fmt.Sprintf("Explain '%s' clearly in 5-8 lines. Avoid jargon and use a simple student-friendly tone.", topic)
	default:
		return Prompt{
			Task:          intent.TaskClarification,
			Topic:         topic,
			User:          ClarificationMessage,
			Clarification: true,
		}
	}

	return Prompt{
		Task:   task,
		Topic:  topic,
		System: System,
		User:   user,
	}
}

// QueryLabel phrases a topic and a selected task the way a user would ask,
// using wording that NormalizeTopic strips cleanly.
func QueryLabel(topic string, task intent.Task) string {
	switch task {
	case intent.TaskQuiz:
		return "quiz on " + topic
	case intent.TaskSummary:
		return "summary of " + topic
	case intent.TaskExplanation:
		return "explain " + topic
	default:
		return topic
	}
}
