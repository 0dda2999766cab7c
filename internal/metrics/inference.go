package metrics

import "github.com/prometheus/client_golang/prometheus"

// Highlighting inference Prometheus metrics.
var (
	HighlightRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spotlight",
			Name:      "highlight_requests_total",
			Help:      "Total number of semantic highlighting pipeline runs",
		},
		[]string{"mode", "status"},
	)

	HighlightDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spotlight",
			Name:      "highlight_duration_seconds",
			Help:      "End-to-end highlighting pipeline duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"mode"},
	)

	InferenceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spotlight",
			Name:      "inference_requests_total",
			Help:      "Total number of model inference calls",
		},
		[]string{"model", "mode", "status"},
	)

	InferenceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spotlight",
			Name:      "inference_request_duration_seconds",
			Help:      "Model inference call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model", "mode"},
	)

	InferenceBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spotlight",
			Name:      "inference_batch_size",
			Help:      "Documents submitted per batch inference call",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"model"},
	)
)

var inferenceMetricsRegistered bool

// RegisterInferenceMetrics registers Prometheus inference metrics. Must be
// called once from main.
func RegisterInferenceMetrics() {
	if inferenceMetricsRegistered {
		return
	}
	prometheus.MustRegister(HighlightRequestsTotal)
	prometheus.MustRegister(HighlightDuration)
	prometheus.MustRegister(InferenceRequestsTotal)
	prometheus.MustRegister(InferenceRequestDuration)
	prometheus.MustRegister(InferenceBatchSize)
	inferenceMetricsRegistered = true
}
