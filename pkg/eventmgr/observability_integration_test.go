package eventmgr_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/event"
)

// metricTotal sums every int64 datapoint of the named metric.
func metricTotal(t *testing.T, rm *metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not recorded", name)
	return 0
}

func TestPublish_WithMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		_ = provider.Shutdown(context.Background())
	})

	m := eventmgr.New(eventmgr.WithLogger(nil), eventmgr.WithMetrics(true))
	c := &calls{}
	require.NoError(t, m.Register("ok", c.listener("ok")))
	require.NoError(t, m.Register("bad", event.NewListener(func(context.Context, event.Event) error {
		return errors.New("bad")
	})))
	require.NoError(t, m.Register("gone", c.listener("gone")))
	m.Unregister("gone")

	require.Error(t, m.Publish(context.Background(), event.NewSimple(simpleKind, nil)))
	require.NoError(t, m.Publish(context.Background(), nil))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	assert.Equal(t, int64(1), metricTotal(t, &rm, "eventmgr.publish.count"))
	assert.Equal(t, int64(1), metricTotal(t, &rm, "eventmgr.publish.null"))
	assert.Equal(t, int64(2), metricTotal(t, &rm, "eventmgr.delivery.count"))
	assert.Equal(t, int64(1), metricTotal(t, &rm, "eventmgr.delivery.errors"))
	assert.Equal(t, int64(2), metricTotal(t, &rm, "eventmgr.registrations.live"))
}

func TestPublish_WithTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})

	m := eventmgr.New(eventmgr.WithLogger(nil), eventmgr.WithTracing(true))
	require.NoError(t, m.Register("first", (&calls{}).listener("first")))
	require.NoError(t, m.Register("failing", event.NewListener(func(context.Context, event.Event) error {
		return errors.New("bad")
	})))

	evt := event.NewSimple(simpleKind, nil)
	require.Error(t, m.Publish(context.Background(), evt))

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)

	first, failing, publish := spans[0], spans[1], spans[2]
	assert.Equal(t, "eventmgr.publish", publish.Name)
	assert.Equal(t, codes.Error, publish.Status.Code)

	for _, s := range []tracetest.SpanStub{first, failing} {
		assert.Equal(t, "eventmgr.deliver", s.Name)
		assert.Equal(t, publish.SpanContext.SpanID(), s.Parent.SpanID())
	}
	assert.Equal(t, codes.Ok, first.Status.Code)
	assert.Equal(t, codes.Error, failing.Status.Code)
}
