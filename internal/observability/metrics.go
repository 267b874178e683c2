package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the bulletin
// pipeline.
type Metrics struct {
	StatementsIngested prometheus.Counter
	DuplicatesSkipped  prometheus.Counter
	StatementsAnalyzed prometheus.Counter
	ParseErrors        prometheus.Counter
	NotificationsSent  prometheus.Counter

	PipelineRuns *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration  prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		StatementsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fwd_nagaoka",
			Name:      "statements_ingested_total",
			Help:      "Total new statements inserted from the bulletin.",
		}),
		DuplicatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fwd_nagaoka",
			Name:      "duplicates_skipped_total",
			Help:      "Total statements skipped because they were already ingested.",
		}),
		StatementsAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fwd_nagaoka",
			Name:      "statements_analyzed_total",
			Help:      "Total statements parsed into disaster details.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fwd_nagaoka",
			Name:      "parse_errors_total",
			Help:      "Total statements that failed analysis and were skipped.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fwd_nagaoka",
			Name:      "notifications_sent_total",
			Help:      "Total notifications delivered to the webhook.",
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fwd_nagaoka",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline invocations by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fwd_nagaoka",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-ingest-analyze-notify pass.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}

	prometheus.MustRegister(
		m.StatementsIngested,
		m.DuplicatesSkipped,
		m.StatementsAnalyzed,
		m.ParseErrors,
		m.NotificationsSent,
		m.PipelineRuns,
		m.RunDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		StatementsIngested: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fwd_nagaoka", Name: "statements_ingested_total"}),
		DuplicatesSkipped:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fwd_nagaoka", Name: "duplicates_skipped_total"}),
		StatementsAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fwd_nagaoka", Name: "statements_analyzed_total"}),
		ParseErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fwd_nagaoka", Name: "parse_errors_total"}),
		NotificationsSent:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fwd_nagaoka", Name: "notifications_sent_total"}),
		PipelineRuns:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "fwd_nagaoka", Name: "pipeline_runs_total"}, []string{"outcome"}),
		RunDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "fwd_nagaoka", Name: "run_duration_seconds"}),
	}
}
