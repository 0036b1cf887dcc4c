/*
Package metrics records pipeline metrics using Prometheus primitives.

Deckhand is a short-lived CLI: it runs, deploys, exits. There is no
process to scrape, so instead of exposing an HTTP endpoint the package
keeps a private registry and dumps it to a file in node-exporter
textfile-collector format at the end of a run. A node exporter (or any
textfile-aware agent) on the CI host picks the file up, and deployment
durations and success rates land on the same dashboards as everything
else.

# Metrics Reference

Stage metrics (one stage = one pipeline phase):

	deckhand_stage_duration_seconds{stage}     histogram
	deckhand_stage_runs_total{stage,outcome}   counter

Action metrics (one action = one CLI invocation):

	deckhand_action_runs_total{action,outcome}  counter
	deckhand_action_duration_seconds{action}    histogram

Run summary:

	deckhand_last_run_timestamp_seconds  gauge
	deckhand_last_run_success            gauge (1 success, 0 failure)

Stage label values are the pipeline stages (certs, build, start, stop,
test, clean, status); action label values are the CLI actions (deploy,
certs, build, ...); outcome is "success" or "failure".

# Textfile Export

Export is opt-in via the metrics_file configuration key:

	DECKHAND_METRICS_FILE=/var/lib/node_exporter/textfile/deckhand.prom deckhand deploy

WriteTextfile writes atomically (temp file plus rename, courtesy of
prometheus.WriteToTextfile), so a collector never observes a partial
file. The last-run gauges make staleness visible: an alert on
time() - deckhand_last_run_timestamp_seconds catches a CI job that
stopped running at all.

# Usage

Timing a stage:

	timer := metrics.NewTimer()
	err := runStage(ctx)
	timer.ObserveDurationVec(metrics.StageDuration, "build")
	if err != nil {
		metrics.StageRuns.WithLabelValues("build", "failure").Inc()
	} else {
		metrics.StageRuns.WithLabelValues("build", "success").Inc()
	}

End of run (cmd/deckhand):

	metrics.LastRunTimestamp.SetToCurrentTime()
	metrics.LastRunSuccess.Set(1)
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn("could not write metrics file")
	}

A failed metrics write is a warning, never a run failure: observability
must not break the deployment it observes.

# Example Queries

Deploy success rate over a day:

	sum(increase(deckhand_action_runs_total{action="deploy",outcome="success"}[1d]))
	/
	sum(increase(deckhand_action_runs_total{action="deploy"}[1d]))

Slowest stage, 95th percentile:

	histogram_quantile(0.95, sum by (stage, le) (deckhand_stage_duration_seconds_bucket))

Stale runs:

	time() - deckhand_last_run_timestamp_seconds > 86400

# Integration Points

  - pkg/pipeline: Stage timers and outcome counters
  - cmd/deckhand: Action metrics, run gauges, textfile export

# See Also

  - Textfile collector: https://github.com/prometheus/node_exporter#textfile-collector
  - prometheus/client_golang: https://github.com/prometheus/client_golang
*/
package metrics
