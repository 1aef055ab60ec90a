package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Completion, arXiv and index Prometheus metrics.
var (
	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docmind",
			Name:      "completion_requests_total",
			Help:      "Total number of completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docmind",
			Name:      "completion_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"provider", "model"},
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docmind",
			Name:      "completion_tokens_total",
			Help:      "Total completion tokens consumed",
		},
		[]string{"provider", "model", "type"}, // "prompt" / "completion"
	)

	ArxivRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docmind",
			Name:      "arxiv_requests_total",
			Help:      "Total number of arXiv API requests",
		},
		[]string{"status"},
	)

	ArxivRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docmind",
			Name:      "arxiv_request_duration_seconds",
			Help:      "arXiv API request duration in seconds, including limiter wait",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	IndexedDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docmind",
			Name:      "indexed_documents",
			Help:      "Documents currently in the index",
		},
	)

	IndexedChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docmind",
			Name:      "indexed_chunks_total",
			Help:      "Chunks committed to the index",
		},
		[]string{"source"},
	)

	IndexDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docmind",
			Name:      "index_document_duration_seconds",
			Help:      "Time to chunk, embed and commit one document",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

var registerPipelineOnce sync.Once

// RegisterPipelineMetrics registers completion, arXiv and index metrics. Safe to call twice.
func RegisterPipelineMetrics() {
	registerPipelineOnce.Do(func() {
		prometheus.MustRegister(
			CompletionRequestsTotal,
			CompletionRequestDuration,
			CompletionTokensTotal,
			ArxivRequestsTotal,
			ArxivRequestDuration,
			IndexedDocuments,
			IndexedChunksTotal,
			IndexDuration,
		)
	})
}
