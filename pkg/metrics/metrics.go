package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Stage metrics
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deckhand_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	StageRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deckhand_stage_runs_total",
			Help: "Total number of pipeline stage executions by outcome",
		},
		[]string{"stage", "outcome"},
	)

	// Action metrics
	ActionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deckhand_action_runs_total",
			Help: "Total number of action executions by outcome",
		},
		[]string{"action", "outcome"},
	)

	ActionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deckhand_action_duration_seconds",
			Help:    "Action duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "deckhand_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last pipeline run",
		},
	)

	LastRunSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "deckhand_last_run_success",
			Help: "Whether the last pipeline run succeeded (1 = success, 0 = failure)",
		},
	)
)

// registry is private: a short-lived CLI has no scrape endpoint, so
// metrics are exported through the textfile collector instead and must
// not mingle with the default registry.
var registry = prometheus.NewRegistry()

func init() {
	// Register all metrics
	registry.MustRegister(StageDuration)
	registry.MustRegister(StageRuns)
	registry.MustRegister(ActionRuns)
	registry.MustRegister(ActionDuration)
	registry.MustRegister(LastRunTimestamp)
	registry.MustRegister(LastRunSuccess)
}

// WriteTextfile dumps all metrics to path in the node-exporter
// textfile collector format. The write is atomic (temp file + rename)
// so a collector never reads a partial file.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}
