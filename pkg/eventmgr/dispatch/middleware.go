package dispatch

import (
	"context"
	"log/slog"
	"runtime/debug"

	emerrors "github.com/randalmurphal/eventmgr/pkg/eventmgr/errors"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/event"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/observability"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/registry"
)

// Deliverer hands one event to one registration.
type Deliverer func(ctx context.Context, reg registry.Registration, evt event.Event) error

// Middleware wraps a Deliverer.
type Middleware func(next Deliverer) Deliverer

// ChainMiddleware wraps d with mws. The first middleware is the outermost.
func ChainMiddleware(d Deliverer, mws ...Middleware) Deliverer {
	for i := len(mws) - 1; i >= 0; i-- {
		d = mws[i](d)
	}
	return d
}

func invoke(ctx context.Context, reg registry.Registration, evt event.Event) error {
	return reg.Listener.Handle(ctx, evt)
}

// RecoveryMiddleware turns listener panics into *errors.PanicError.
// With PolicyFailFast this stops delivery at the panicking listener without
// unwinding the publisher.
func RecoveryMiddleware() Middleware {
	return func(next Deliverer) Deliverer {
		return func(ctx context.Context, reg registry.Registration, evt event.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &emerrors.PanicError{Value: r, Stack: string(debug.Stack())}
				}
			}()
			return next(ctx, reg, evt)
		}
	}
}

// LoggingMiddleware logs every delivery with its duration.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Deliverer) Deliverer {
		return func(ctx context.Context, reg registry.Registration, evt event.Event) error {
			elapsed := observability.TimedOperation()
			err := next(ctx, reg, evt)
			observability.LogDelivery(logger, reg.Key, evt.ID(), elapsed(), err)
			return err
		}
	}
}

// RetryMiddleware redelivers an event to a listener that returned a
// transient error, backing off between attempts. Permanent errors and
// recovered panics are returned after the first attempt.
func RetryMiddleware(cfg emerrors.RetryConfig) Middleware {
	return func(next Deliverer) Deliverer {
		return func(ctx context.Context, reg registry.Registration, evt event.Event) error {
			return emerrors.Redeliver(ctx, cfg, func(ctx context.Context) error {
				return next(ctx, reg, evt)
			})
		}
	}
}
