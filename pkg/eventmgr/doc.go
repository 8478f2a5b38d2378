/*
Package eventmgr provides an in-process publish/subscribe event dispatcher.

# Overview

Components register listeners under string keys. Each listener declares the
event kinds it wants; a publisher hands an event to every live listener whose
interest matches the event's kind. Matching supports:
  - exact kinds
  - ancestor kinds: a listener for "order" also receives "order.paid" when
    the hierarchy says so
  - wildcards: a listener declaring no kinds receives everything

Delivery is synchronous, on the publisher's goroutine, in registration order.

# Basic Usage

	table := kind.NewTable()
	table.Declare("order.paid", "order")

	m := eventmgr.New(eventmgr.WithHierarchy(table))

	m.Register("audit", event.NewListener(func(ctx context.Context, evt event.Event) error {
	    log.Printf("order event %s from %v", evt.Kind(), evt.Source())
	    return nil
	}, "order"))

	err := m.Publish(ctx, event.New("order.paid", "checkout", Payment{Amount: 42}))

Registering a key again replaces the earlier listener. Unregistering an
unknown key does nothing. Publishing nil logs a warning and does nothing.

# Failure Policy

PolicyIsolate (default) invokes every matched listener, recovers panics, and
returns all failures in a *PublishError:

	var pubErr *eventmgr.PublishError
	if errors.As(err, &pubErr) {
	    log.Printf("%d delivered, failed: %v", pubErr.Delivered, pubErr.Keys())
	}

PolicyFailFast stops at the first failing listener and returns its
*ListenerError. Panics reach the publisher unless WithRecovery is set.

# Configuration

	m, err := eventmgr.FromFile("events.yaml")

See package config for the file format.

# Observability

Logs use slog with fields event_id, event_kind, listener_key, duration_ms.
OpenTelemetry metrics: eventmgr.publish.count, eventmgr.delivery.latency_ms, etc.
OpenTelemetry tracing: eventmgr.publish > eventmgr.deliver spans.

# Thread Safety

Manager, its Registry and its Dispatcher are safe for concurrent use.
Listeners are invoked without any registry lock held, so they may register
and unregister freely.

# Subpackages

  - kind: kinds and hierarchies
  - event: events and listeners
  - registry: the listener registry
  - dispatch: publishing, failure policy, middleware
  - config: YAML/JSON configuration
  - errors: error types and retry
  - observability: logging, metrics, and tracing helpers
*/
package eventmgr
