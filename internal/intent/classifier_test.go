package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Task
	}{
		{name: "quiz", input: "quiz on Newton's Laws", want: TaskQuiz},
		{name: "quiz upper case", input: "QUIZ me on cells", want: TaskQuiz},
		{name: "quiz wins over summary", input: "summarize and quiz me", want: TaskQuiz},
		{name: "quiz wins over explain", input: "explain then give me a Quiz", want: TaskQuiz},
		{name: "quiz inside a word", input: "quizzes about rome", want: TaskQuiz},
		{name: "summary", input: "summary of the french revolution", want: TaskSummary},
		{name: "summarize", input: "Summarize photosynthesis", want: TaskSummary},
		{name: "summary wins over explain", input: "explain and summarize", want: TaskSummary},
		{name: "explain", input: "explain entropy", want: TaskExplanation},
		{name: "explanation", input: "an explanation of tides", want: TaskExplanation},
		{name: "what is", input: "What is a derivative?", want: TaskExplanation},
		{name: "describe", input: "describe mitosis", want: TaskExplanation},
		{name: "definition", input: "Definition of inertia", want: TaskExplanation},
		{name: "no keyword", input: "Newton's Laws", want: TaskClarification},
		{name: "empty", input: "", want: TaskClarification},
		{name: "whitespace", input: "   ", want: TaskClarification},
		{name: "near miss", input: "summ it up", want: TaskClarification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.input))
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	inputs := []string{"\x00", "日本語", "quizquiz", "what is what is", "💡 describe"}
	for _, in := range inputs {
		got := Classify(in)
		assert.Contains(t, []Task{TaskQuiz, TaskSummary, TaskExplanation, TaskClarification}, got, in)
	}
}

func TestParseTask(t *testing.T) {
	tests := []struct {
		in     string
		want   Task
		wantOK bool
	}{
		{in: "Quiz", want: TaskQuiz, wantOK: true},
		{in: "summary", want: TaskSummary, wantOK: true},
		{in: " Explanation ", want: TaskExplanation, wantOK: true},
		{in: "explain", want: TaskExplanation, wantOK: true},
		{in: "auto", want: TaskAuto, wantOK: true},
		{in: "", want: TaskAuto, wantOK: true},
		{in: "essay", want: TaskClarification, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTask(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestTaskLabel(t *testing.T) {
	assert.Equal(t, "Quiz", TaskQuiz.Label())
	assert.Equal(t, "Explanation", TaskExplanation.Label())
	assert.Equal(t, "unknown", Task(42).String())
}
