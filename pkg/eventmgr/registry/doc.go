// Package registry holds the live listener registrations of an event
// dispatcher.
//
// # Basic Usage
//
//	table := kind.NewTable()
//	table.Declare("order.paid", "order")
//
//	r := registry.New(registry.WithHierarchy(table))
//	r.Register("audit", event.NewListener(audit, "order"))
//	r.Register("everything", event.ListenerFunc(trace))
//
//	r.ListenersFor("order.paid") // audit, everything
//
// # Keys
//
// Every registration has a unique, non-empty key. Registering an existing key
// replaces the earlier listener: it is removed from every index bucket before
// the new one is inserted, under one lock, so a concurrent lookup sees either
// the old listener or the new one and never both. Unregistering an unknown
// key does nothing.
//
// # Matching
//
// A listener matches kind K when it declared no kinds (wildcard), or when one
// of its declared kinds is K or an ancestor of K in the registry's hierarchy.
// Results come back in registration order; a replaced key counts as a new
// registration.
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use. Lookups return fresh
// slices, so callers may invoke listeners without holding any lock while
// other goroutines register and unregister.
package registry
