package intent

import "strings"

var (
	summaryKeywords     = []string{"summary", "summarize"}
	explanationKeywords = []string{"explain", "explanation", "what is", "describe", "definition"}
)

// Classify routes free-form text to a task. Matching is case-insensitive and
// the first rule that matches wins: quiz, then summary, then explanation.
// Anything else needs clarification.
func Classify(input string) Task {
	lower := strings.ToLower(input)

	switch {
	case strings.Contains(lower, "quiz"):
		return TaskQuiz
	case containsAny(lower, summaryKeywords):
		return TaskSummary
	case containsAny(lower, explanationKeywords):
		return TaskExplanation
	default:
		return TaskClarification
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
