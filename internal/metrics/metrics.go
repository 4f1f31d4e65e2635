package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for MemoMate
type Metrics struct {
	Completions       *prometheus.CounterVec
	CompletionLatency *prometheus.HistogramVec
	Extractions       *prometheus.CounterVec
	Clarifications    prometheus.Counter

	SessionsCreated     prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			Completions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memomate_completions_total",
					Help: "Completion requests by task and result",
				},
				[]string{"provider", "task", "result"},
			),
			CompletionLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "memomate_completion_duration_seconds",
					Help:    "Latency of completion requests in seconds",
					Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s to 128s
				},
				[]string{"provider", "task"},
			),
			Extractions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memomate_extractions_total",
					Help: "Document text extractions by format and result",
				},
				[]string{"format", "result"},
			),
			Clarifications: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "memomate_clarifications_total",
					Help: "Requests answered with a clarification instead of a completion",
				},
			),
			SessionsCreated: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "memomate_sessions_created_total",
					Help: "Browser sessions created",
				},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memomate_http_requests_total",
					Help: "HTTP requests by route, method and status",
				},
				[]string{"route", "method", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "memomate_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"route", "method"},
			),
		}
	})
	return sharedMetrics
}

// RecordCompletion is nil-safe so callers without metrics can skip the check.
func (m *Metrics) RecordCompletion(provider, task string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "error"
	}
	m.Completions.WithLabelValues(provider, task, result).Inc()
	m.CompletionLatency.WithLabelValues(provider, task).Observe(d.Seconds())
}

func (m *Metrics) RecordExtraction(format string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "empty"
	}
	m.Extractions.WithLabelValues(format, result).Inc()
}

func (m *Metrics) RecordClarification() {
	if m == nil {
		return
	}
	m.Clarifications.Inc()
}

func (m *Metrics) RecordSession() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

func (m *Metrics) RecordHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
