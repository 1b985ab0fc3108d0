package seasonmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)
	ctx := context.Background()

	m.RecordOperationAttempt(ctx, "RecordRace", "SeasonService")
	m.RecordOperationAttempt(ctx, "RecordRace", "SeasonService")
	m.RecordOperationSuccess(ctx, "RecordRace", "SeasonService")
	m.RecordOperationDuration(ctx, "RecordRace", "SeasonService", 3*time.Millisecond)
	m.RecordEventRecorded(ctx, "FEATURE")
	m.RecordSubmissionRejected(ctx, "duplicate rank")
	m.RecordReplay(ctx, "ok", time.Millisecond)
	m.SetRaceNo(ctx, 7)

	pm := m.(*prometheusMetrics)
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.attempts.WithLabelValues("RecordRace", "SeasonService")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.events.WithLabelValues("FEATURE")))
	assert.Equal(t, 7.0, testutil.ToFloat64(pm.raceNo))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoop()
	m.RecordOperationFailure(context.Background(), "op", "svc")
	m.SetRaceNo(context.Background(), 1)
}
