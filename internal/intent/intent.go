package intent

import "strings"

// Task is the routing decision for a user request.
type Task int

const (
	TaskClarification Task = iota
	TaskQuiz
	TaskSummary
	TaskExplanation

	// TaskAuto asks the classifier to pick a task from the request text.
	TaskAuto
)

func (t Task) String() string {
	switch t {
	case TaskQuiz:
		return "quiz"
	case TaskSummary:
		return "summary"
	case TaskExplanation:
		return "explanation"
	case TaskClarification:
		return "clarification"
	case TaskAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Label is the capitalized form used by task selectors.
func (t Task) Label() string {
	s := t.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// Selectable lists the tasks a user can pick directly, in selector order.
var Selectable = []Task{TaskQuiz, TaskSummary, TaskExplanation, TaskAuto}

// ParseTask maps a selector value such as "Quiz" or "auto" to a Task.
// Unknown values report false.
func ParseTask(s string) (Task, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiz":
		return TaskQuiz, true
	case "summary":
		return TaskSummary, true
	case "explanation", "explain":
		return TaskExplanation, true
	case "auto", "":
		return TaskAuto, true
	default:
		return TaskClarification, false
	}
}
