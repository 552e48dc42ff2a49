package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	errs "igrelations/pkg/errors"
)

// Recorder collects the metrics of one run in its own registry
type Recorder struct {
	registry *prometheus.Registry

	fetches      *prometheus.CounterVec
	fetchLatency prometheus.Histogram
	pauses       *prometheus.CounterVec
	pauseSeconds *prometheus.CounterVec
	relations    *prometheus.GaugeVec
	sinkRecords  *prometheus.GaugeVec
	sinkErrors   *prometheus.CounterVec
	lastRun      prometheus.Gauge
}

// NewRecorder creates a recorder with every collector registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "igrelations_profile_fetches_total",
			Help: "Profile fetches by outcome",
		}, []string{"status", "error_type"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "igrelations_profile_fetch_seconds",
			Help:    "Latency of profile fetches",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		pauses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "igrelations_pauses_total",
			Help: "Pauses taken between fetches",
		}, []string{"after"}),
		pauseSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "igrelations_pause_seconds_total",
			Help: "Time spent pausing between fetches",
		}, []string{"after"}),
		relations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "igrelations_relation_accounts",
			Help: "Accounts per relation category in the last run",
		}, []string{"category"}),
		sinkRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "igrelations_sink_records",
			Help: "Records written per sink in the last run",
		}, []string{"sink"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "igrelations_sink_errors_total",
			Help: "Failed sink writes",
		}, []string{"sink"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "igrelations_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}

	r.registry.MustRegister(
		r.fetches,
		r.fetchLatency,
		r.pauses,
		r.pauseSeconds,
		r.relations,
		r.sinkRecords,
		r.sinkErrors,
		r.lastRun,
	)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch records one profile fetch
func (r *Recorder) ObserveFetch(err error, took time.Duration) {
	if err != nil {
		r.fetches.WithLabelValues("error", string(errs.TypeOf(err))).Inc()
	} else {
		r.fetches.WithLabelValues("success", "").Inc()
	}
	r.fetchLatency.Observe(took.Seconds())
}

// ObservePause records one pause between fetches
func (r *Recorder) ObservePause(delay time.Duration, afterFailure bool) {
	after := "success"
	if afterFailure {
		after = "failure"
	}
	r.pauses.WithLabelValues(after).Inc()
	r.pauseSeconds.WithLabelValues(after).Add(delay.Seconds())
}

// SetRelation records the size of one relation category
func (r *Recorder) SetRelation(category string, n int) {
	r.relations.WithLabelValues(category).Set(float64(n))
}

// ObserveSink records the outcome of one export sink
func (r *Recorder) ObserveSink(sink string, records int, err error) {
	if err != nil {
		r.sinkErrors.WithLabelValues(sink).Inc()
		return
	}
	r.sinkRecords.WithLabelValues(sink).Set(float64(records))
}

// Finish stamps the run completion time
func (r *Recorder) Finish(at time.Time) {
	r.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in text exposition format to path,
// for node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
