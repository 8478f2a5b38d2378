package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("eventmgr")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartPublishSpan starts a span covering one publish call.
	StartPublishSpan(ctx context.Context, eventID, eventKind string) (context.Context, trace.Span)

	// StartDeliverySpan starts a span for one listener invocation.
	// It should be a child of the publish span.
	StartDeliverySpan(ctx context.Context, key string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartPublishSpan(ctx context.Context, eventID, eventKind string) (context.Context, trace.Span) {
	return StartPublishSpan(ctx, eventID, eventKind)
}

func (m *otelSpanManager) StartDeliverySpan(ctx context.Context, key string) (context.Context, trace.Span) {
	return StartDeliverySpan(ctx, key)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartPublishSpan starts a span for a publish call.
// Uses the global OTel tracer.
func StartPublishSpan(ctx context.Context, eventID, eventKind string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventmgr.publish",
		trace.WithAttributes(
			attribute.String("event.id", eventID),
			attribute.String("event.kind", eventKind),
		),
		trace.WithSpanKind(trace.SpanKindProducer),
	)
}

// StartDeliverySpan starts a span for a listener invocation.
// Uses the global OTel tracer.
func StartDeliverySpan(ctx context.Context, key string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventmgr.deliver",
		trace.WithAttributes(
			attribute.String("listener.key", key),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
