package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	evaluationsTotal      *prometheus.CounterVec
	evaluationScore       prometheus.Histogram
	evaluationDurationSec prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the API and
// the grading pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelforge_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "labelforge_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelforge_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelforge_evaluations_total",
			Help: "Total number of grading engine runs by outcome.",
		}, []string{"outcome"})

		evaluationScore = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "labelforge_evaluation_score",
			Help:    "Distribution of percentage scores produced by the grading engine.",
			Buckets: []float64{0, 10, 25, 50, 75, 90, 100},
		})

		evaluationDurationSec = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "labelforge_evaluation_duration_seconds",
			Help:    "Wall time spent inside the grading engine per submission.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			evaluationsTotal,
			evaluationScore,
			evaluationDurationSec,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Evaluations exposes the counter for grading engine runs.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// EvaluationScores exposes the percentage score histogram.
func EvaluationScores() prometheus.Histogram {
	RegisterMetrics()
	return evaluationScore
}

// EvaluationDuration exposes the engine wall time histogram.
func EvaluationDuration() prometheus.Histogram {
	RegisterMetrics()
	return evaluationDurationSec
}
