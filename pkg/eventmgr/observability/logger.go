// Package observability provides logging, metrics, and tracing for the
// event dispatcher.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds event context to a logger.
// Returns a new logger with event_id and event_kind fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, evt.ID(), evt.Kind().String())
//	enriched.Info("delivering") // includes event_id, event_kind
func EnrichLogger(logger *slog.Logger, eventID, eventKind string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("event_id", eventID),
		slog.String("event_kind", eventKind),
	)
}

// LogNullEvent logs a publish call made without an event.
func LogNullEvent(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Warn("null event published")
}

// LogPublishStart logs the start of a publish call.
func LogPublishStart(logger *slog.Logger, eventID, eventKind string, listeners int) {
	if logger == nil {
		return
	}
	logger.Debug("publishing event",
		slog.String("event_id", eventID),
		slog.String("event_kind", eventKind),
		slog.Int("listeners", listeners),
	)
}

// LogPublishComplete logs the end of a publish call.
func LogPublishComplete(logger *slog.Logger, eventID string, delivered, failed int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("event published",
		slog.String("event_id", eventID),
		slog.Int("delivered", delivered),
		slog.Int("failed", failed),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogListenerError logs a listener failure with its category.
func LogListenerError(logger *slog.Logger, key, eventID, category string, err error) {
	if logger == nil {
		return
	}
	logger.Error("listener failed",
		slog.String("listener_key", key),
		slog.String("event_id", eventID),
		slog.String("category", category),
		slog.String("error", err.Error()),
	)
}

// LogDelivery logs one completed delivery.
func LogDelivery(logger *slog.Logger, key, eventID string, durationMs float64, err error) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.String("listener_key", key),
		slog.String("event_id", eventID),
		slog.Float64("duration_ms", durationMs),
	}
	if err != nil {
		logger.Warn("delivery failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	logger.Debug("delivered", attrs...)
}

// LogRegister logs a new registration.
func LogRegister(logger *slog.Logger, key string, kinds []string) {
	if logger == nil {
		return
	}
	logger.Debug("listener registered",
		slog.String("listener_key", key),
		slog.Any("kinds", kinds),
	)
}

// LogReplace logs a registration that displaced an earlier one under the same key.
func LogReplace(logger *slog.Logger, key string) {
	if logger == nil {
		return
	}
	logger.Debug("listener replaced",
		slog.String("listener_key", key),
	)
}

// LogUnregister logs removal of a registration.
func LogUnregister(logger *slog.Logger, key string) {
	if logger == nil {
		return
	}
	logger.Debug("listener unregistered",
		slog.String("listener_key", key),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
