package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pipelineOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querybridge_pipeline_outcomes_total",
			Help: "Total number of questions by terminal pipeline status.",
		},
		[]string{"status"},
	)
	llmLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querybridge_llm_latency_seconds",
			Help:    "SQL generation latency, labelled by whether the completion call failed.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"result"},
	)
	queryLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querybridge_query_latency_seconds",
			Help:    "Execution latency of validated SQL, labelled by backend and result.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "result"},
	)
	queryRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querybridge_query_rows_returned",
			Help:    "Rows returned per successful query.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		pipelineOutcomesTotal,
		llmLatencySeconds,
		queryLatencySeconds,
		queryRowsReturned,
	)
}

func ObservePipelineOutcome(status string) {
	pipelineOutcomesTotal.WithLabelValues(status).Inc()
}

func ObserveGeneration(elapsed time.Duration, err error) {
	llmLatencySeconds.WithLabelValues(resultLabel(err)).Observe(elapsed.Seconds())
}

func ObserveQuery(backend string, elapsed time.Duration, rows int, err error) {
	queryLatencySeconds.WithLabelValues(backend, resultLabel(err)).Observe(elapsed.Seconds())
	if err == nil {
		queryRowsReturned.Observe(float64(rows))
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
