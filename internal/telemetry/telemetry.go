// Package telemetry exposes Prometheus collectors for the notifier.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes, used as the label on arxivbot_runs_total.
const (
	OutcomeOK             = "ok"
	OutcomeSkippedWeekend = "skipped_weekend"
	OutcomeNoNew          = "no_new"
	OutcomeError          = "error"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arxivbot_runs_total",
			Help: "Total pipeline runs, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	entriesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arxivbot_entries_fetched_total",
			Help: "Total entries parsed from the listing page.",
		},
	)

	entriesPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arxivbot_entries_published_total",
			Help: "Total entries confirmed sent to the chat.",
		},
	)

	publishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arxivbot_publish_errors_total",
			Help: "Total failed sends.",
		},
	)

	fetchDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arxivbot_fetch_duration_seconds",
			Help:    "Histogram of listing fetch+parse latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)
)

// ObserveRun counts one finished run by outcome.
func ObserveRun(outcome string) {
	runsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records a successful listing fetch.
func ObserveFetch(entries int, d time.Duration) {
	entriesFetchedTotal.Add(float64(entries))
	fetchDurationSeconds.Observe(d.Seconds())
}

// ObservePublished counts entries confirmed sent.
func ObservePublished(entries int) {
	entriesPublishedTotal.Add(float64(entries))
}

// ObservePublishError counts one failed send.
func ObservePublishError() {
	publishErrorsTotal.Inc()
}
