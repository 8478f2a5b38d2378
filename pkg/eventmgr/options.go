package eventmgr

import (
	"log/slog"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/dispatch"
	emerrors "github.com/randalmurphal/eventmgr/pkg/eventmgr/errors"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/kind"
)

// Failure policies, re-exported from dispatch.
const (
	PolicyIsolate  = dispatch.PolicyIsolate
	PolicyFailFast = dispatch.PolicyFailFast
)

// managerConfig holds construction settings for a Manager.
type managerConfig struct {
	logger        *slog.Logger
	hierarchy     kind.Hierarchy
	policy        dispatch.Policy
	metrics       bool
	tracing       bool
	recoverPanics bool
	logDeliveries bool
	retry         *emerrors.RetryConfig
	middleware    []dispatch.Middleware
}

func defaultManagerConfig() managerConfig {
	return managerConfig{
		logger:    slog.Default(),
		hierarchy: kind.Flat,
		policy:    dispatch.PolicyIsolate,
	}
}

// Option configures a Manager.
type Option func(*managerConfig)

// WithLogger sets the logger. Default: slog.Default(). Pass nil to disable
// logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *managerConfig) {
		c.logger = logger
	}
}

// WithHierarchy sets the kind hierarchy used for matching.
// Default: kind.Flat (exact matches only).
//
// Example:
//
//	table := kind.NewTable()
//	table.Declare("order.paid", "order")
//	m := eventmgr.New(eventmgr.WithHierarchy(table))
func WithHierarchy(h kind.Hierarchy) Option {
	return func(c *managerConfig) {
		if h != nil {
			c.hierarchy = h
		}
	}
}

// WithPolicy sets the listener failure policy. Default: PolicyIsolate.
func WithPolicy(p dispatch.Policy) Option {
	return func(c *managerConfig) {
		c.policy = p
	}
}

// WithMetrics enables OpenTelemetry metrics via the global meter provider.
func WithMetrics(enabled bool) Option {
	return func(c *managerConfig) {
		c.metrics = enabled
	}
}

// WithTracing enables OpenTelemetry spans via the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(c *managerConfig) {
		c.tracing = enabled
	}
}

// WithRecovery converts listener panics into errors. Only changes behavior
// under PolicyFailFast; PolicyIsolate always recovers.
func WithRecovery(enabled bool) Option {
	return func(c *managerConfig) {
		c.recoverPanics = enabled
	}
}

// WithDeliveryLogging logs each delivery at debug level.
func WithDeliveryLogging(enabled bool) Option {
	return func(c *managerConfig) {
		c.logDeliveries = enabled
	}
}

// WithRetry retries transient listener errors with backoff.
func WithRetry(cfg emerrors.RetryConfig) Option {
	return func(c *managerConfig) {
		c.retry = &cfg
	}
}

// WithMiddleware adds delivery middleware, innermost of the built-ins.
func WithMiddleware(mw ...dispatch.Middleware) Option {
	return func(c *managerConfig) {
		c.middleware = append(c.middleware, mw...)
	}
}

// chain returns the delivery middleware in outermost-first order.
func (c managerConfig) chain() []dispatch.Middleware {
	var mws []dispatch.Middleware
	if c.recoverPanics {
		mws = append(mws, dispatch.RecoveryMiddleware())
	}
	if c.logDeliveries {
		mws = append(mws, dispatch.LoggingMiddleware(c.logger))
	}
	if c.retry != nil {
		mws = append(mws, dispatch.RetryMiddleware(*c.retry))
	}
	return append(mws, c.middleware...)
}
