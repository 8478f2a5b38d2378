package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/lo"

	emerrors "github.com/randalmurphal/eventmgr/pkg/eventmgr/errors"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/event"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/kind"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/observability"
)

// Registration is a live (key, listener) pair as seen by the dispatcher.
type Registration struct {
	Key      string
	Listener event.Listener
	// Kinds is the deduplicated interest declared at registration time.
	// Empty means wildcard.
	Kinds []kind.Kind
}

// entry is the registry's record of one registration. Buckets hold entries,
// not listeners, so the same listener registered under two keys is two
// independent registrations.
type entry struct {
	key      string
	seq      uint64
	listener event.Listener
	kinds    []kind.Kind
}

func (e *entry) registration() Registration {
	return Registration{Key: e.key, Listener: e.listener, Kinds: e.kinds}
}

// Registry maps registration keys to listeners and indexes them by the
// kinds they declared. It is safe for concurrent use.
//
// entries is the source of truth. byKind and wildcards are derived from it:
// an entry sits in bucket K iff K is one of its declared kinds, and in
// wildcards iff it declared none. Every bucket is ordered by seq.
type Registry struct {
	hierarchy kind.Hierarchy
	logger    *slog.Logger
	metrics   observability.MetricsRecorder

	mu        sync.RWMutex
	entries   map[string]*entry
	byKind    map[kind.Kind][]*entry
	wildcards []*entry
	seq       uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithHierarchy sets the kind hierarchy used for matching.
// Default: kind.Flat (exact matches only).
func WithHierarchy(h kind.Hierarchy) Option {
	return func(r *Registry) {
		if h != nil {
			r.hierarchy = h
		}
	}
}

// WithLogger sets the logger for registration changes.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics sets the recorder for the live registration count.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		hierarchy: kind.Flat,
		metrics:   observability.NoopMetrics{},
		entries:   make(map[string]*entry),
		byKind:    make(map[kind.Kind][]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Hierarchy returns the hierarchy used for matching.
func (r *Registry) Hierarchy() kind.Hierarchy {
	return r.hierarchy
}

// Register makes listener live under key. If key is already registered the
// previous listener is removed from every bucket first, within the same
// critical section, so no reader ever sees both or neither.
//
// Register fails with ErrInvalidArgument for an empty key, a nil listener
// (including a nil pointer or nil ListenerFunc) or an empty declared kind,
// leaving the registry unchanged.
func (r *Registry) Register(key string, listener event.Listener) error {
	if key == "" {
		return fmt.Errorf("%w: listener key must not be empty", emerrors.ErrInvalidArgument)
	}
	if event.IsNil(listener) {
		return fmt.Errorf("%w: listener for key %q must not be nil", emerrors.ErrInvalidArgument, key)
	}

	kinds := lo.Uniq(listener.Kinds())
	if lo.Contains(kinds, "") {
		return fmt.Errorf("%w: listener for key %q declares an empty kind", emerrors.ErrInvalidArgument, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.entries[key]
	if replaced {
		r.remove(key)
	}

	r.seq++
	e := &entry{
		key:      key,
		seq:      r.seq,
		listener: listener,
		kinds:    kinds,
	}
	r.entries[key] = e

	if len(kinds) == 0 {
		r.wildcards = append(r.wildcards, e)
	} else {
		for _, k := range kinds {
			r.byKind[k] = append(r.byKind[k], e)
		}
	}

	if replaced {
		observability.LogReplace(r.logger, key)
	} else {
		r.metrics.RecordRegistrations(context.Background(), 1)
	}
	observability.LogRegister(r.logger, key, lo.Map(kinds, func(k kind.Kind, _ int) string { return string(k) }))

	return nil
}

// Unregister removes the listener registered under key. Unknown keys are
// ignored.
func (r *Registry) Unregister(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.remove(key) {
		r.metrics.RecordRegistrations(context.Background(), -1)
		observability.LogUnregister(r.logger, key)
	}
}

// remove deletes key's entry from the map and every bucket it was put in.
// Caller holds the write lock.
func (r *Registry) remove(key string) bool {
	e, ok := r.entries[key]
	if !ok {
		return false
	}
	delete(r.entries, key)

	if len(e.kinds) == 0 {
		r.wildcards = without(r.wildcards, e)
		return true
	}
	for _, k := range e.kinds {
		bucket := without(r.byKind[k], e)
		if len(bucket) == 0 {
			delete(r.byKind, k)
		} else {
			r.byKind[k] = bucket
		}
	}
	return true
}

// without returns bucket minus e. It never writes into bucket's backing
// array, so slices handed out earlier stay intact.
func without(bucket []*entry, e *entry) []*entry {
	out := make([]*entry, 0, len(bucket))
	for _, b := range bucket {
		if b != e {
			out = append(out, b)
		}
	}
	return out
}

// Matching returns every live registration whose declared kinds match k,
// in registration order, each at most once.
func (r *Registry) Matching(k kind.Kind) []Registration {
	r.mu.RLock()
	matched := r.match(k)
	r.mu.RUnlock()

	return lo.Map(matched, func(e *entry, _ int) Registration { return e.registration() })
}

// ListenersFor returns the listeners that should receive an event of kind k,
// in registration order.
func (r *Registry) ListenersFor(k kind.Kind) []event.Listener {
	r.mu.RLock()
	matched := r.match(k)
	r.mu.RUnlock()

	return lo.Map(matched, func(e *entry, _ int) event.Listener { return e.listener })
}

// match collects the buckets of k and of every ancestor of k, plus the
// wildcard bucket. Hierarchies that cannot list ancestors are asked about
// every bucket instead. Caller holds the lock.
func (r *Registry) match(k kind.Kind) []*entry {
	matched := append([]*entry(nil), r.byKind[k]...)

	if lister, ok := r.hierarchy.(kind.Lister); ok {
		for _, a := range lister.Ancestors(k) {
			matched = append(matched, r.byKind[a]...)
		}
	} else {
		for bucketKind, bucket := range r.byKind {
			if bucketKind != k && r.hierarchy.IsAncestorOrSelf(bucketKind, k) {
				matched = append(matched, bucket...)
			}
		}
	}
	matched = append(matched, r.wildcards...)

	// An entry declaring both a kind and its ancestor sits in two matching buckets.
	matched = lo.Uniq(matched)
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	return matched
}

// Get returns the listener registered under key.
func (r *Registry) Get(key string) (event.Listener, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	return e.listener, true
}

// Has returns true if key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys returns all registered keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := lo.Keys(r.entries)
	r.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the key -> listener mapping.
func (r *Registry) Snapshot() map[string]event.Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.MapValues(r.entries, func(e *entry, _ string) event.Listener { return e.listener })
}
