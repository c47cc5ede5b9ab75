package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PipelineRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "townfeed",
		Name:      "pipeline_runs_total",
		Help:      "Number of aggregation pipeline runs",
	})
	SourceEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "townfeed",
		Name:      "source_events_total",
		Help:      "Number of events emitted, by source",
	}, []string{"source"})
	SourceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "townfeed",
		Name:      "source_failures_total",
		Help:      "Number of source generation failures, by source",
	}, []string{"source"})
	FeedSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "townfeed",
		Name:      "feed_events",
		Help:      "Size of the most recently aggregated feed",
	})
)

func init() {
	prometheus.MustRegister(PipelineRuns, SourceEvents, SourceFailures, FeedSize)
}
