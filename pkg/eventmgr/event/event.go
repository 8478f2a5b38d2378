// Package event defines the values that flow through the dispatcher: events
// and the listeners that handle them.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/kind"
)

// Event is the interface for everything that can be published.
// Events are immutable once created.
type Event interface {
	// Identity
	ID() string      // Unique event identifier
	Kind() kind.Kind // Concrete kind, used for listener matching
	Source() any     // Whatever originated the event

	// Metadata
	Timestamp() time.Time // When the event occurred

	// Payload
	Data() any
}

// Metadata contains common event metadata fields.
type Metadata struct {
	EventID   string
	EventKind kind.Kind
	Timestamp time.Time
}

// BaseEvent provides a generic event implementation.
// T is the payload type for type-safe access.
type BaseEvent[T any] struct {
	meta    Metadata
	source  any
	payload T
}

// ID returns the unique event identifier.
func (e *BaseEvent[T]) ID() string {
	return e.meta.EventID
}

// Kind returns the event kind.
func (e *BaseEvent[T]) Kind() kind.Kind {
	return e.meta.EventKind
}

// Source returns the originating source reference.
func (e *BaseEvent[T]) Source() any {
	return e.source
}

// Timestamp returns when the event occurred.
func (e *BaseEvent[T]) Timestamp() time.Time {
	return e.meta.Timestamp
}

// Data returns the event payload.
func (e *BaseEvent[T]) Data() any {
	return e.payload
}

// Payload returns the strongly-typed payload.
func (e *BaseEvent[T]) Payload() T {
	return e.payload
}

// Metadata returns a copy of the event metadata.
func (e *BaseEvent[T]) Metadata() Metadata {
	return e.meta
}

// Option configures event creation.
type Option func(*eventConfig)

type eventConfig struct {
	id        string
	timestamp time.Time
}

// WithEventID sets a specific event ID (default: auto-generated UUID).
func WithEventID(id string) Option {
	return func(cfg *eventConfig) {
		cfg.id = id
	}
}

// WithTimestamp sets a specific timestamp (default: time.Now()).
func WithTimestamp(t time.Time) Option {
	return func(cfg *eventConfig) {
		cfg.timestamp = t
	}
}

// New creates an event of kind k raised by source.
func New[T any](k kind.Kind, source any, payload T, opts ...Option) *BaseEvent[T] {
	cfg := &eventConfig{
		id:        uuid.New().String(),
		timestamp: time.Now(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &BaseEvent[T]{
		meta: Metadata{
			EventID:   cfg.id,
			EventKind: k,
			Timestamp: cfg.timestamp,
		},
		source:  source,
		payload: payload,
	}
}

// NewSimple creates an event that carries nothing but its kind and source.
func NewSimple(k kind.Kind, source any, opts ...Option) *BaseEvent[struct{}] {
	return New(k, source, struct{}{}, opts...)
}
