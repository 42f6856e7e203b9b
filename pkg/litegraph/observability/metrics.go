package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records engine metrics.
// Use NewMetricsRecorder for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordStep records one RunStep call.
	RecordStep(ctx context.Context, iterations int, duration time.Duration, err error)

	// RecordNodeExecution records one node execution.
	RecordNodeExecution(ctx context.Context, nodeType string, duration time.Duration, err error)

	// RecordAction records one action delivered to a node.
	RecordAction(ctx context.Context, nodeType, action string, err error)

	// RecordSnapshot records the size of a history snapshot.
	RecordSnapshot(ctx context.Context, sizeBytes int64)
}

type otelMetrics struct {
	steps          metric.Int64Counter
	stepLatency    metric.Float64Histogram
	stepErrors     metric.Int64Counter
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	actions        metric.Int64Counter
	snapshotSize   metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("litegraph"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	m := &otelMetrics{}
	var err error

	if m.steps, err = meter.Int64Counter("litegraph.step.count",
		metric.WithDescription("Number of RunStep calls"),
	); err != nil {
		return nil, err
	}
	if m.stepLatency, err = meter.Float64Histogram("litegraph.step.latency_ms",
		metric.WithDescription("RunStep latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.stepErrors, err = meter.Int64Counter("litegraph.step.errors",
		metric.WithDescription("Number of failed RunStep calls"),
	); err != nil {
		return nil, err
	}
	if m.nodeExecutions, err = meter.Int64Counter("litegraph.node.executions",
		metric.WithDescription("Number of node executions"),
	); err != nil {
		return nil, err
	}
	if m.nodeLatency, err = meter.Float64Histogram("litegraph.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.nodeErrors, err = meter.Int64Counter("litegraph.node.errors",
		metric.WithDescription("Number of node execution and action errors"),
	); err != nil {
		return nil, err
	}
	if m.actions, err = meter.Int64Counter("litegraph.node.actions",
		metric.WithDescription("Number of actions delivered to nodes"),
	); err != nil {
		return nil, err
	}
	if m.snapshotSize, err = meter.Int64Histogram("litegraph.history.snapshot_bytes",
		metric.WithDescription("History snapshot size in bytes"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider, or a no-op recorder if instrument creation fails.
// Set the provider with otel.SetMeterProvider before the first call.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderWithMeter builds a recorder on an explicit meter.
func NewMetricsRecorderWithMeter(meter metric.Meter) (MetricsRecorder, error) {
	return newOtelMetrics(meter)
}

func (m *otelMetrics) RecordStep(ctx context.Context, iterations int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	m.steps.Add(ctx, int64(iterations), attrs)
	m.stepLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.stepErrors.Add(ctx, 1)
	}
}

func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeType string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node_type", nodeType))
	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.nodeErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("node_type", nodeType),
			attribute.String("operation", "execute"),
		))
	}
}

func (m *otelMetrics) RecordAction(ctx context.Context, nodeType, action string, err error) {
	m.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node_type", nodeType),
		attribute.String("action", action),
	))
	if err != nil {
		m.nodeErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("node_type", nodeType),
			attribute.String("operation", "action"),
		))
	}
}

func (m *otelMetrics) RecordSnapshot(ctx context.Context, sizeBytes int64) {
	m.snapshotSize.Record(ctx, sizeBytes)
}
