// Package seasonmetrics records season service metrics.
package seasonmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SeasonMetrics is the metrics surface of the season module.
type SeasonMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, d time.Duration)

	RecordEventRecorded(ctx context.Context, kind string)
	RecordSubmissionRejected(ctx context.Context, reason string)
	RecordReplay(ctx context.Context, outcome string, d time.Duration)
	SetRaceNo(ctx context.Context, raceNo int)
}

type prometheusMetrics struct {
	attempts   *prometheus.CounterVec
	successes  *prometheus.CounterVec
	failures   *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	events     *prometheus.CounterVec
	rejections *prometheus.CounterVec
	replays    *prometheus.HistogramVec
	raceNo     prometheus.Gauge
}

// NewPrometheus registers the season collectors on reg.
func NewPrometheus(reg prometheus.Registerer) SeasonMetrics {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitwall", Subsystem: "season", Name: "operation_attempts_total",
			Help: "Season service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitwall", Subsystem: "season", Name: "operation_success_total",
			Help: "Season service operations that returned without an infrastructure error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitwall", Subsystem: "season", Name: "operation_failures_total",
			Help: "Season service operations that errored or panicked.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pitwall", Subsystem: "season", Name: "operation_duration_seconds",
			Help:    "Season service operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitwall", Subsystem: "season", Name: "events_recorded_total",
			Help: "Race events appended to the ledger.",
		}, []string{"kind"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitwall", Subsystem: "season", Name: "submission_violations_total",
			Help: "Rejected submission entries by violation kind.",
		}, []string{"reason"}),
		replays: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pitwall", Subsystem: "season", Name: "replay_duration_seconds",
			Help:    "Save code replay latency by outcome.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"outcome"}),
		raceNo: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pitwall", Subsystem: "season", Name: "race_no",
			Help: "Feature races recorded in the current season.",
		}),
	}
	reg.MustRegister(m.attempts, m.successes, m.failures, m.durations, m.events, m.rejections, m.replays, m.raceNo)
	return m
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(d.Seconds())
}

func (m *prometheusMetrics) RecordEventRecorded(_ context.Context, kind string) {
	m.events.WithLabelValues(kind).Inc()
}

func (m *prometheusMetrics) RecordSubmissionRejected(_ context.Context, reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *prometheusMetrics) RecordReplay(_ context.Context, outcome string, d time.Duration) {
	m.replays.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *prometheusMetrics) SetRaceNo(_ context.Context, raceNo int) {
	m.raceNo.Set(float64(raceNo))
}

type noop struct{}

// NewNoop returns metrics that discard everything.
func NewNoop() SeasonMetrics { return noop{} }

func (noop) RecordOperationAttempt(context.Context, string, string)                {}
func (noop) RecordOperationSuccess(context.Context, string, string)                {}
func (noop) RecordOperationFailure(context.Context, string, string)                {}
func (noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noop) RecordEventRecorded(context.Context, string)                           {}
func (noop) RecordSubmissionRejected(context.Context, string)                      {}
func (noop) RecordReplay(context.Context, string, time.Duration)                   {}
func (noop) SetRaceNo(context.Context, int)                                        {}
