// Package dispatch delivers published events to the listeners that match them.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	emerrors "github.com/randalmurphal/eventmgr/pkg/eventmgr/errors"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/event"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/kind"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/observability"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/registry"
)

// Policy decides what happens when a listener fails during a publish.
type Policy int

const (
	// PolicyIsolate invokes every matched listener regardless of earlier
	// failures. Panics are recovered. All failures are returned together in
	// a *errors.PublishError.
	PolicyIsolate Policy = iota

	// PolicyFailFast stops at the first listener error and returns it as a
	// *errors.ListenerError. Listeners after it are not invoked. Panics are
	// not recovered unless RecoveryMiddleware is installed.
	PolicyFailFast
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyIsolate:
		return "isolate"
	case PolicyFailFast:
		return "fail_fast"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses a configuration name. The empty string yields
// PolicyIsolate.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "isolate":
		return PolicyIsolate, nil
	case "fail_fast", "failfast", "fail-fast":
		return PolicyFailFast, nil
	default:
		return 0, fmt.Errorf("%w: unknown failure policy %q", emerrors.ErrInvalidArgument, s)
	}
}

// Source supplies the live registrations matching a kind, in delivery order.
// *registry.Registry implements it.
type Source interface {
	Matching(k kind.Kind) []registry.Registration
}

// Config configures a Dispatcher.
type Config struct {
	// Policy for listener failures.
	// Default: PolicyIsolate
	Policy Policy

	// Logger receives publish and failure logs. Nil disables logging.
	Logger *slog.Logger

	// Metrics records publish and delivery metrics.
	// Default: observability.NoopMetrics
	Metrics observability.MetricsRecorder

	// Spans creates publish and delivery spans.
	// Default: observability.NoopSpanManager
	Spans observability.SpanManager
}

// Stats is a point-in-time copy of a dispatcher's counters.
type Stats struct {
	Published int64 // non-null publish calls
	Null      int64 // null events ignored
	Delivered int64 // listener invocations that returned nil
	Failed    int64 // listener invocations that failed or panicked
}

// Dispatcher delivers published events to the matching listeners of a Source.
type Dispatcher struct {
	source Source
	config Config

	mu         sync.RWMutex
	middleware []Middleware

	published atomic.Int64
	null      atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
}

// New creates a dispatcher reading registrations from source.
func New(source Source, cfg Config) *Dispatcher {
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	if cfg.Spans == nil {
		cfg.Spans = observability.NoopSpanManager{}
	}
	return &Dispatcher{
		source: source,
		config: cfg,
	}
}

// Policy returns the configured failure policy.
func (d *Dispatcher) Policy() Policy {
	return d.config.Policy
}

// Use appends middleware wrapping every delivery. The first middleware added
// is the outermost. Applies to subsequent Publish calls.
func (d *Dispatcher) Use(mw ...Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middleware = append(d.middleware, mw...)
}

// Publish delivers evt synchronously to every matching listener, in
// registration order, and returns once they have all returned.
//
// A nil event, including a typed nil pointer, is logged and ignored.
//
// Under PolicyIsolate the error, if any, is a *errors.PublishError holding
// every failure. Under PolicyFailFast it is the first *errors.ListenerError.
func (d *Dispatcher) Publish(ctx context.Context, evt event.Event) (err error) {
	if event.IsNil(evt) {
		d.null.Add(1)
		observability.LogNullEvent(d.config.Logger)
		d.config.Metrics.RecordNullEvent(ctx)
		return nil
	}

	start := time.Now()
	eventID, k := evt.ID(), evt.Kind()

	ctx, span := d.config.Spans.StartPublishSpan(ctx, eventID, k.String())
	defer func() {
		if r := recover(); r != nil {
			d.config.Spans.EndSpanWithError(span, fmt.Errorf("publish panicked: %v", r))
			panic(r)
		}
		d.config.Spans.EndSpanWithError(span, err)
	}()

	regs := d.source.Matching(k)
	d.published.Add(1)

	logger := observability.EnrichLogger(d.config.Logger, eventID, k.String())
	observability.LogPublishStart(logger, eventID, k.String(), len(regs))

	deliver := d.chain()
	var (
		delivered int
		failures  []*emerrors.ListenerError
	)
	for _, reg := range regs {
		derr := d.deliver(ctx, deliver, reg, evt)
		if derr == nil {
			delivered++
			d.delivered.Add(1)
			continue
		}

		lerr := listenerError(reg.Key, evt, derr)
		failures = append(failures, lerr)
		d.failed.Add(1)
		observability.LogListenerError(logger, reg.Key, eventID, emerrors.Categorize(derr).String(), derr)

		if d.config.Policy == PolicyFailFast {
			break
		}
	}

	switch {
	case len(failures) == 0:
	case d.config.Policy == PolicyFailFast:
		err = failures[0]
	default:
		err = &emerrors.PublishError{
			EventID:   eventID,
			Kind:      k,
			Delivered: delivered,
			Failures:  failures,
		}
	}

	duration := time.Since(start)
	d.config.Metrics.RecordPublish(ctx, k.String(), len(regs), duration, err)
	observability.LogPublishComplete(logger, eventID, delivered, len(failures), float64(duration.Microseconds())/1000)
	return err
}

// deliver runs one delivery inside its own span.
func (d *Dispatcher) deliver(ctx context.Context, next Deliverer, reg registry.Registration, evt event.Event) (err error) {
	ctx, span := d.config.Spans.StartDeliverySpan(ctx, reg.Key)
	start := time.Now()

	defer func() {
		r := recover()
		if r != nil {
			err = &emerrors.PanicError{Value: r, Stack: string(debug.Stack())}
		}
		d.config.Metrics.RecordDelivery(ctx, reg.Key, evt.Kind().String(), time.Since(start), err)
		d.config.Spans.EndSpanWithError(span, err)

		if r != nil && d.config.Policy == PolicyFailFast {
			d.failed.Add(1)
			panic(r)
		}
	}()

	return next(ctx, reg, evt)
}

// chain builds the delivery function from the current middleware.
func (d *Dispatcher) chain() Deliverer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return ChainMiddleware(invoke, d.middleware...)
}

// Stats returns the dispatcher's counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Published: d.published.Load(),
		Null:      d.null.Load(),
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
	}
}

func listenerError(key string, evt event.Event, err error) *emerrors.ListenerError {
	var panicErr *emerrors.PanicError
	return &emerrors.ListenerError{
		Key:      key,
		EventID:  evt.ID(),
		Kind:     evt.Kind(),
		Panicked: errors.As(err, &panicErr),
		Err:      err,
	}
}
