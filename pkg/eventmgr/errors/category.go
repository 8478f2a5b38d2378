// Package errors holds the errors a publish can return and decides which
// listener failures are worth delivering again.
//
// Every failed delivery falls in one Category. Listeners ask for
// redelivery by returning Transient(err); anything they do not mark is
// permanent. Panics are never redelivered.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Category classifies a listener failure by what delivering the same event
// again would do.
type Category int

const (
	// CategoryPermanent means the listener rejected the event and would
	// reject it again. Unmarked listener errors land here.
	CategoryPermanent Category = iota

	// CategoryTransient means the listener hit a condition that may clear,
	// such as a busy downstream or an expired deadline.
	CategoryTransient

	// CategoryPanic means the listener panicked.
	CategoryPanic

	// CategoryCanceled means the publisher's context ended before the
	// listener was done.
	CategoryCanceled
)

// String returns the category name used in logs.
func (c Category) String() string {
	switch c {
	case CategoryPermanent:
		return "permanent"
	case CategoryTransient:
		return "transient"
	case CategoryPanic:
		return "panic"
	case CategoryCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// CategorizedError marks a listener error with its category.
type CategorizedError struct {
	Err      error
	Category Category

	// Attempts is how many deliveries were made before giving up. Zero when
	// the listener returned the error itself.
	Attempts int
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Attempts == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (%s, gave up after %d attempts)", e.Err, e.Category, e.Attempts)
}

// Unwrap returns the marked error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// Transient marks err as worth delivering again.
func Transient(err error) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryTransient}
}

// Permanent marks err as final, overriding a transient cause further down
// the chain.
func Permanent(err error) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryPermanent}
}

// Categorize classifies the error of a delivery or a whole publish.
//
// A panic beats any marking, so a recovered panic stays CategoryPanic even
// when a *ListenerError or a transient wrapper surrounds it. A
// *PublishError takes the category of its first failure that is not
// transient, and is transient only if every failure is.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	var pubErr *PublishError
	if errors.As(err, &pubErr) {
		return categorizeFailures(pubErr.Failures)
	}

	var lisErr *ListenerError
	if errors.As(err, &lisErr) && lisErr.Panicked {
		return CategoryPanic
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return CategoryPanic
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	switch {
	case errors.Is(err, context.Canceled):
		return CategoryCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return CategoryTransient
	default:
		return CategoryPermanent
	}
}

func categorizeFailures(failures []*ListenerError) Category {
	if len(failures) == 0 {
		return CategoryPermanent
	}
	for _, f := range failures {
		if c := Categorize(f); c != CategoryTransient {
			return c
		}
	}
	return CategoryTransient
}

// IsRetryable reports whether delivering the event again may succeed.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}
