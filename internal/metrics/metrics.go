package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptotracker_cycles_total",
			Help: "Total number of fetch cycles by outcome",
		},
		[]string{"outcome"},
	)

	CyclesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cryptotracker_cycles_skipped_total",
			Help: "Ticks dropped because the previous cycle was still running",
		},
	)

	PricesStoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cryptotracker_prices_stored_total",
			Help: "Total number of price points written to the store",
		},
	)

	SymbolsMissingTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cryptotracker_symbols_missing_total",
			Help: "Tracked symbols absent from a provider response",
		},
	)

	StoreWriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cryptotracker_store_write_errors_total",
			Help: "Total number of failed price writes",
		},
	)

	ProviderRequestDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cryptotracker_provider_request_duration_seconds",
			Help:    "Latency of price provider requests",
			Buckets: prometheus.DefBuckets,
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptotracker_http_requests_total",
			Help: "Total number of API requests per route and status code",
		},
		[]string{"route", "code"},
	)
)

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cryptotracker_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cryptotracker_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptotracker_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

// UpdateJobMetrics records the duration and outcome of one scheduled run.
func UpdateJobMetrics(job string, startedAt time.Time, failed bool) {
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(time.Since(startedAt).Seconds())
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	outcome := "ok"
	if failed {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
		outcome = "failed"
	}
	CyclesTotal.WithLabelValues(outcome).Inc()
}
