package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsIsShared(t *testing.T) {
	assert.Same(t, NewMetrics(), NewMetrics())
}

func TestRecordCompletion(t *testing.T) {
	m := NewMetrics()
	before := testutil.ToFloat64(m.Completions.WithLabelValues("Groq", "quiz", "error"))

	m.RecordCompletion("Groq", "quiz", false, 2*time.Second)

	after := testutil.ToFloat64(m.Completions.WithLabelValues("Groq", "quiz", "error"))
	assert.Equal(t, before+1, after)
}

func TestRecordExtraction(t *testing.T) {
	m := NewMetrics()
	before := testutil.ToFloat64(m.Extractions.WithLabelValues("pdf", "empty"))

	m.RecordExtraction("pdf", false)

	assert.Equal(t, before+1, testutil.ToFloat64(m.Extractions.WithLabelValues("pdf", "empty")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCompletion("Groq", "quiz", true, time.Second)
		m.RecordExtraction("docx", true)
		m.RecordClarification()
		m.RecordSession()
		m.RecordHTTP("/ask", "POST", 200, time.Second)
	})
}

func TestRecordHTTP(t *testing.T) {
	m := NewMetrics()
	before := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/upload", "POST", "422"))

	m.RecordHTTP("/upload", "POST", 422, 30*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/upload", "POST", "422")))
}
