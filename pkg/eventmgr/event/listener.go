package event

import (
	"context"
	"fmt"
	"reflect"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/kind"
)

// Listener handles published events.
type Listener interface {
	// Handle processes an event. It runs on the publisher's goroutine and
	// should return promptly.
	Handle(ctx context.Context, evt Event) error

	// Kinds returns the event kinds this listener wants. An event matches
	// when one of them is the event's kind or an ancestor of it.
	// An empty slice means the listener accepts every kind.
	Kinds() []kind.Kind
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, evt Event) error

// Handle implements Listener.
func (f ListenerFunc) Handle(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Kinds returns nil (accepts all event kinds).
func (f ListenerFunc) Kinds() []kind.Kind {
	return nil
}

// NewListener returns a listener for the given kinds backed by fn.
// With no kinds it is a wildcard listener.
func NewListener(fn ListenerFunc, kinds ...kind.Kind) Listener {
	return &funcListener{fn: fn, kinds: kinds}
}

type funcListener struct {
	fn    ListenerFunc
	kinds []kind.Kind
}

func (l *funcListener) Handle(ctx context.Context, evt Event) error {
	return l.fn(ctx, evt)
}

func (l *funcListener) Kinds() []kind.Kind {
	return l.kinds
}

// Typed wraps a function expecting a concrete event type. Events of other
// Go types that still match the declared kinds are rejected with an error,
// so E is usually an interface shared by a kind and its descendants.
func Typed[E Event](fn func(ctx context.Context, evt E) error, kinds ...kind.Kind) Listener {
	return &typedListener[E]{fn: fn, kinds: kinds}
}

type typedListener[E Event] struct {
	fn    func(ctx context.Context, evt E) error
	kinds []kind.Kind
}

func (l *typedListener[E]) Handle(ctx context.Context, evt Event) error {
	typed, ok := evt.(E)
	if !ok {
		return fmt.Errorf("unexpected event type %T for kind %s, want %s", evt, evt.Kind(), reflect.TypeOf((*E)(nil)).Elem())
	}
	return l.fn(ctx, typed)
}

func (l *typedListener[E]) Kinds() []kind.Kind {
	return l.kinds
}
