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

// MetricsRecorder records dispatcher metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPublish records a completed publish call.
	RecordPublish(ctx context.Context, eventKind string, listeners int, duration time.Duration, err error)

	// RecordNullEvent records a publish call made without an event.
	RecordNullEvent(ctx context.Context)

	// RecordDelivery records one listener invocation.
	RecordDelivery(ctx context.Context, key, eventKind string, duration time.Duration, err error)

	// RecordRegistrations adjusts the live registration count by delta.
	RecordRegistrations(ctx context.Context, delta int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	publishes       metric.Int64Counter
	publishLatency  metric.Float64Histogram
	nullEvents      metric.Int64Counter
	deliveries      metric.Int64Counter
	deliveryErrors  metric.Int64Counter
	deliveryLatency metric.Float64Histogram
	registrations   metric.Int64UpDownCounter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventmgr")

	publishes, err := meter.Int64Counter("eventmgr.publish.count",
		metric.WithDescription("Number of published events"),
	)
	if err != nil {
		return nil, err
	}

	publishLatency, err := meter.Float64Histogram("eventmgr.publish.latency_ms",
		metric.WithDescription("Publish latency across all listeners in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nullEvents, err := meter.Int64Counter("eventmgr.publish.null",
		metric.WithDescription("Number of publish calls without an event"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("eventmgr.delivery.count",
		metric.WithDescription("Number of listener invocations"),
	)
	if err != nil {
		return nil, err
	}

	deliveryErrors, err := meter.Int64Counter("eventmgr.delivery.errors",
		metric.WithDescription("Number of failed listener invocations"),
	)
	if err != nil {
		return nil, err
	}

	deliveryLatency, err := meter.Float64Histogram("eventmgr.delivery.latency_ms",
		metric.WithDescription("Listener invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	registrations, err := meter.Int64UpDownCounter("eventmgr.registrations.live",
		metric.WithDescription("Number of live listener registrations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		publishes:       publishes,
		publishLatency:  publishLatency,
		nullEvents:      nullEvents,
		deliveries:      deliveries,
		deliveryErrors:  deliveryErrors,
		deliveryLatency: deliveryLatency,
		registrations:   registrations,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordPublish records a publish call.
func (m *otelMetrics) RecordPublish(ctx context.Context, eventKind string, listeners int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("event_kind", eventKind),
		attribute.Bool("success", err == nil),
	)
	m.publishes.Add(ctx, 1, attrs)
	m.publishLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordNullEvent records a null publish.
func (m *otelMetrics) RecordNullEvent(ctx context.Context) {
	m.nullEvents.Add(ctx, 1)
}

// RecordDelivery records one listener invocation.
func (m *otelMetrics) RecordDelivery(ctx context.Context, key, eventKind string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("listener_key", key),
		attribute.String("event_kind", eventKind),
	)

	m.deliveries.Add(ctx, 1, attrs)
	m.deliveryLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)

	if err != nil {
		m.deliveryErrors.Add(ctx, 1, attrs)
	}
}

// RecordRegistrations adjusts the live registration gauge.
func (m *otelMetrics) RecordRegistrations(ctx context.Context, delta int64) {
	m.registrations.Add(ctx, delta)
}
