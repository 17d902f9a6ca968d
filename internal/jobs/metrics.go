// Package jobmetrics instruments background job runs.
package jobmetrics

import (
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Run statuses recorded on pos_jobs_total.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusFailure = "failure"
)

// Failure kinds recorded on pos_jobs_failures_total. Dropped failures carry
// asynq.SkipRetry and will not be attempted again.
const (
	FailureRetry   = "retry"
	FailureDropped = "dropped"
)

// Metrics holds the collectors shared by every job handler.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job collectors. A nil registerer selects the process-wide
// default registry; repeated calls then share one instance.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker measures one job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
	skipped bool
}

// Track starts measuring a run of job.
func (m *Metrics) Track(job string) *Tracker {
	t := &Tracker{job: job, start: time.Now()}
	if m != nil {
		t.metrics = m
		t.start = m.clock()
	}
	return t
}

// Skip marks the run as having found its work already applied.
func (t *Tracker) Skip() {
	if t != nil {
		t.skipped = true
	}
}

// End records the run and returns err unchanged, so handlers can use it in a deferred
// assignment to their named result.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	m := t.metrics
	now := m.clock()
	m.duration.WithLabelValues(t.job).Observe(now.Sub(t.start).Seconds())

	switch {
	case err != nil:
		kind := FailureRetry
		if errors.Is(err, asynq.SkipRetry) {
			kind = FailureDropped
		}
		m.failures.WithLabelValues(t.job, kind).Inc()
		m.runs.WithLabelValues(t.job, StatusFailure).Inc()
	case t.skipped:
		m.runs.WithLabelValues(t.job, StatusSkipped).Inc()
		m.lastSuccess.WithLabelValues(t.job).Set(float64(now.Unix()))
	default:
		m.runs.WithLabelValues(t.job, StatusSuccess).Inc()
		m.lastSuccess.WithLabelValues(t.job).Set(float64(now.Unix()))
	}
	return err
}

func (m *Metrics) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_jobs_total",
		Help: "Job runs by job name and status (success, skipped, failure).",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_jobs_failures_total",
		Help: "Failed job runs by job name and whether asynq will retry them.",
	}, []string{"job", "kind"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_job_duration_seconds",
		Help:    "Duration of job runs in seconds.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60},
	}, []string{"job"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pos_job_last_success_timestamp_seconds",
		Help: "Unix time of the last run that completed without error.",
	}, []string{"job"})
	registerer.MustRegister(runs, failures, duration, lastSuccess)
	return &Metrics{runs: runs, failures: failures, duration: duration, lastSuccess: lastSuccess}
}
