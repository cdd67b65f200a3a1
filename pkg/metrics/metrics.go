// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal tracks completed conversation turns by terminal status.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designer_turns_total",
			Help: "Total conversation turns by status",
		},
		[]string{"status"},
	)

	// TurnRetriesTotal tracks turn-level retries after malformed responses.
	TurnRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "designer_turn_retries_total",
			Help: "Total turn retries after malformed responses",
		},
	)

	// LLMRequestDuration tracks remote assistant request duration.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "designer_llm_request_duration_seconds",
			Help:    "Remote assistant request duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designer_llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"provider", "direction"},
	)

	// TranscriptSavesTotal tracks transcript store writes.
	TranscriptSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designer_transcript_saves_total",
			Help: "Total transcript writes by status",
		},
		[]string{"status"},
	)

	// DocumentsGeneratedTotal tracks generated documents by name and status.
	DocumentsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designer_documents_generated_total",
			Help: "Total documents generated by name and status",
		},
		[]string{"document", "status"},
	)
)

// RecordLLMRequest records metrics for one remote assistant request.
func RecordLLMRequest(provider, status string, seconds float64, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(provider, status).Observe(seconds)
	LLMTokensTotal.WithLabelValues(provider, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(provider, "out").Add(float64(tokensOut))
}
