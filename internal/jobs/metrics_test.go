package jobmetrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

const job = "pos:purchase_recorded"

func TestTrackerRecordsStatus(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track(job).End(nil))

	skipped := m.Track(job)
	skipped.Skip()
	assert.NoError(t, skipped.End(nil))

	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track(job).End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(job, StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(job, StatusSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(job, StatusFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues(job, FailureRetry)))
}

func TestTrackerSeparatesDroppedFailures(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	err := fmt.Errorf("%w: bad payload", asynq.SkipRetry)
	assert.ErrorIs(t, m.Track(job).End(err), asynq.SkipRetry)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues(job, FailureDropped)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.failures.WithLabelValues(job, FailureRetry)))
}

func TestTrackerStampsLastSuccess(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	at := time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }

	assert.NoError(t, m.Track("pos:idempotency_cleanup").End(nil))
	_ = m.Track(job).End(errors.New("boom"))

	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastSuccess.WithLabelValues("pos:idempotency_cleanup")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.lastSuccess.WithLabelValues(job)))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	tracker := m.Track(job)
	tracker.Skip()
	assert.NoError(t, tracker.End(nil))

	var nilTracker *Tracker
	nilTracker.Skip()
	assert.NoError(t, nilTracker.End(nil))
}
