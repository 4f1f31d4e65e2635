package prompts

import (
	"strings"
	"testing"

	"github.com/sant0-9/memomate/internal/intent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTopic(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "quiz on", raw: "quiz on Newton's Laws", want: "Newton's Laws"},
		{name: "summary of", raw: "summary of the Cold War", want: "the Cold War"},
		{name: "summarize", raw: "summarize  photosynthesis ", want: "photosynthesis"},
		{name: "give me explain", raw: "give me explain gravity", want: "gravity"},
		{name: "describe", raw: "describe the water cycle", want: "the water cycle"},
		{name: "plain topic", raw: "  Thermodynamics\n", want: "Thermodynamics"},
		{name: "case sensitive", raw: "Quiz on Rome", want: "Quiz on Rome"},

		// Known residue of the substring strip.
		{name: "explanation keeps suffix", raw: "explanation of tides", want: "ation of tides"},
		{name: "summary on is not stripped", raw: "summary on tides", want: "summary on tides"},
		{name: "fragment inside a word", raw: "unexplained phenomena", want: "uned phenomena"},
		{name: "interior fragment leaves double space", raw: "tides quiz on waves", want: "tides  waves"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTopic(tt.raw))
		})
	}
}

func TestBuildQuiz(t *testing.T) {
	p := Build("quiz on Newton's Laws", intent.TaskQuiz)

	require.False(t, p.Clarification)
	assert.Equal(t, intent.TaskQuiz, p.Task)
	assert.Equal(t, "Newton's Laws", p.Topic)
	assert.Contains(t, p.User, "Generate 5 multiple-choice quiz questions")
	assert.Contains(t, p.User, "'Newton's Laws'")
	assert.Contains(t, p.User, "4 options labeled A, B, C, and D")
	assert.Contains(t, p.User, "Correct Answer: <option letter>")
	assert.Equal(t, System, p.System)
}

func TestBuildSummary(t *testing.T) {
	p := Build("summary of the Cold War", intent.TaskSummary)

	assert.Equal(t, "the Cold War", p.Topic)
	assert.Contains(t, p.User, "5-bullet summary of 'the Cold War'")
	assert.Contains(t, p.User, "before an exam")
}

func TestBuildExplanation(t *testing.T) {
	p := Build("explain entropy", intent.TaskExplanation)

	assert.Equal(t, "entropy", p.Topic)
	assert.Contains(t, p.User, "Explain 'entropy' clearly in 5-8 lines")
	assert.Contains(t, p.User, "Avoid jargon")
}

func TestBuildClarification(t *testing.T) {
	for _, task := range []intent.Task{intent.TaskClarification, intent.TaskAuto} {
		p := Build("Newton's Laws", task)

		assert.True(t, p.Clarification)
		assert.Equal(t, ClarificationMessage, p.User)
		assert.Empty(t, p.System)
	}
}

func TestSystemPersona(t *testing.T) {
	assert.True(t, strings.HasPrefix(System, "You're an AI Exam Revision Assistant."))
	assert.Contains(t, System, "Be encouraging")
	assert.Contains(t, System, "bullet points")
	assert.Contains(t, System, "key points")
	assert.Equal(t, strings.TrimSpace(System), System)
}

func TestQueryLabelRoundTrips(t *testing.T) {
	for _, task := range []intent.Task{intent.TaskQuiz, intent.TaskSummary, intent.TaskExplanation} {
		label := QueryLabel("Newton's Laws", task)

		assert.Equal(t, task, intent.Classify(label), label)
		assert.Equal(t, "Newton's Laws", NormalizeTopic(label), label)
	}
	assert.Equal(t, "Newton's Laws", QueryLabel("Newton's Laws", intent.TaskAuto))
}
