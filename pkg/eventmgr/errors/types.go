package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/kind"
)

// ErrInvalidArgument indicates a registration was rejected: empty key,
// nil listener or an empty declared kind. The registry is left unchanged.
var ErrInvalidArgument = errors.New("invalid argument")

// ListenerError records one listener's failure to handle an event.
type ListenerError struct {
	// Key is the registration key of the failing listener.
	Key string
	// EventID identifies the event being delivered.
	EventID string
	// Kind is the event's kind.
	Kind kind.Kind
	// Panicked is set when the failure was a recovered panic.
	Panicked bool
	// Err is the listener's error.
	Err error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	verb := "failed"
	if e.Panicked {
		verb = "panicked"
	}
	return fmt.Sprintf("listener %q %s on event %s (%s): %v", e.Key, verb, e.EventID, e.Kind, e.Err)
}

// Unwrap returns the listener's error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// PublishError aggregates the failures of one publish call when delivery
// continues past failing listeners.
type PublishError struct {
	EventID   string
	Kind      kind.Kind
	Delivered int // listeners that returned without error
	Failures  []*ListenerError
}

// Error implements the error interface.
func (e *PublishError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("publish %s (%s): %s", e.EventID, e.Kind, e.Failures[0])
	}
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("publish %s (%s): %d listeners failed: %s",
		e.EventID, e.Kind, len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes each failure to errors.Is and errors.As.
func (e *PublishError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Keys returns the registration keys of the failed listeners, in delivery order.
func (e *PublishError) Keys() []string {
	keys := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		keys[i] = f.Key
	}
	return keys
}

// PanicError captures a panic recovered from a listener.
type PanicError struct {
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
