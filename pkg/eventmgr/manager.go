package eventmgr

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/config"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/dispatch"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/event"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/kind"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/observability"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/registry"
)

// Manager owns one listener registry and the dispatcher publishing to it.
// It is safe for concurrent use.
type Manager struct {
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

// New creates a Manager.
//
// Example:
//
//	m := eventmgr.New(eventmgr.WithPolicy(eventmgr.PolicyFailFast))
//	m.Register("audit", event.NewListener(audit, "order"))
//	err := m.Publish(ctx, event.NewSimple("order", nil))
func New(opts ...Option) *Manager {
	cfg := defaultManagerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var metrics observability.MetricsRecorder = observability.NoopMetrics{}
	if cfg.metrics {
		metrics = observability.NewMetricsRecorder()
	}
	var spans observability.SpanManager = observability.NoopSpanManager{}
	if cfg.tracing {
		spans = observability.NewSpanManager()
	}

	reg := registry.New(
		registry.WithHierarchy(cfg.hierarchy),
		registry.WithLogger(cfg.logger),
		registry.WithMetrics(metrics),
	)
	d := dispatch.New(reg, dispatch.Config{
		Policy:  cfg.policy,
		Logger:  cfg.logger,
		Metrics: metrics,
		Spans:   spans,
	})
	d.Use(cfg.chain()...)

	return &Manager{
		registry:   reg,
		dispatcher: d,
		logger:     cfg.logger,
	}
}

// FromConfig creates a Manager from a parsed configuration document.
// opts are applied after the document's settings and take precedence.
func FromConfig(c config.Config, opts ...Option) (*Manager, error) {
	s, err := config.Parse(c)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithPolicy(s.Policy),
		WithHierarchy(s.Hierarchy),
		WithMetrics(s.Metrics),
		WithTracing(s.Tracing),
		WithRecovery(s.RecoverPanics),
		WithDeliveryLogging(s.LogDeliveries),
	}
	if s.Retry != nil {
		base = append(base, WithRetry(*s.Retry))
	}
	return New(append(base, opts...)...), nil
}

// FromFile loads a YAML or JSON configuration file and calls FromConfig.
func FromFile(path string, opts ...Option) (*Manager, error) {
	c, err := config.FromFile(path)
	if err != nil {
		return nil, err
	}
	return FromConfig(c, opts...)
}

// Register makes listener live under key, replacing any listener already
// registered under it. See registry.Registry.Register.
func (m *Manager) Register(key string, listener event.Listener) error {
	return m.registry.Register(key, listener)
}

// Unregister removes the listener registered under key. Unknown keys are
// ignored.
func (m *Manager) Unregister(key string) {
	m.registry.Unregister(key)
}

// Publish delivers evt to every matching listener. A nil event is logged and
// ignored. See dispatch.Dispatcher.Publish for the error contract.
func (m *Manager) Publish(ctx context.Context, evt event.Event) error {
	return m.dispatcher.Publish(ctx, evt)
}

// ListenersFor returns the listeners an event of kind k would reach.
func (m *Manager) ListenersFor(k kind.Kind) []event.Listener {
	return m.registry.ListenersFor(k)
}

// Len returns the number of live registrations.
func (m *Manager) Len() int {
	return m.registry.Len()
}

// Keys returns the registered keys, sorted.
func (m *Manager) Keys() []string {
	return m.registry.Keys()
}

// Snapshot returns a copy of the key -> listener mapping.
func (m *Manager) Snapshot() map[string]event.Listener {
	return m.registry.Snapshot()
}

// Stats returns the dispatcher's counters.
func (m *Manager) Stats() dispatch.Stats {
	return m.dispatcher.Stats()
}

// Policy returns the failure policy in effect.
func (m *Manager) Policy() dispatch.Policy {
	return m.dispatcher.Policy()
}

// Hierarchy returns the kind hierarchy used for matching.
func (m *Manager) Hierarchy() kind.Hierarchy {
	return m.registry.Hierarchy()
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Dispatcher returns the underlying dispatcher.
func (m *Manager) Dispatcher() *dispatch.Dispatcher {
	return m.dispatcher
}

// Logger returns the manager's logger, which may be nil.
func (m *Manager) Logger() *slog.Logger {
	return m.logger
}
