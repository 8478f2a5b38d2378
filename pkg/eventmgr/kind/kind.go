// Package kind identifies event kinds and the ancestry relation between them.
//
// A Kind is a plain string tag. Ancestry is supplied by a Hierarchy: Flat
// treats every kind as unrelated, Table holds an explicit child -> parents
// declaration. The dispatcher only ever asks one question of a hierarchy,
// IsAncestorOrSelf, so any representation that can answer it will do.
package kind

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Kind identifies the concrete type of an event.
type Kind string

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

var (
	// ErrInvalidKind indicates an empty kind in a declaration.
	ErrInvalidKind = errors.New("invalid kind")

	// ErrCycle indicates a declaration would make a kind its own ancestor.
	ErrCycle = errors.New("kind hierarchy cycle")
)

// Hierarchy answers ancestry questions about kinds.
type Hierarchy interface {
	// IsAncestorOrSelf reports whether candidate equals k or is a strict
	// ancestor of k.
	IsAncestorOrSelf(candidate, k Kind) bool
}

// Lister is a Hierarchy that can enumerate a kind's strict ancestors.
// Flat and *Table implement it.
type Lister interface {
	Hierarchy
	Ancestors(k Kind) []Kind
}

type flat struct{}

func (flat) IsAncestorOrSelf(candidate, k Kind) bool {
	return candidate == k
}

func (flat) Ancestors(Kind) []Kind {
	return nil
}

// Flat is a Hierarchy with no ancestry: only identical kinds match.
var Flat Hierarchy = flat{}

// Matches reports whether a listener declaring the given kinds should
// receive an event of kind k. An empty declaration matches everything.
func Matches(h Hierarchy, declared []Kind, k Kind) bool {
	if len(declared) == 0 {
		return true
	}
	if h == nil {
		h = Flat
	}
	for _, d := range declared {
		if h.IsAncestorOrSelf(d, k) {
			return true
		}
	}
	return false
}

// Table is an explicit ancestor table. It is safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	parents map[Kind][]Kind
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		parents: make(map[Kind][]Kind),
	}
}

// FromMap builds a table from a child -> parents map, as read from config.
// Children are declared in sorted order so errors are deterministic.
func FromMap(m map[string][]string) (*Table, error) {
	t := NewTable()
	children := lo.Keys(m)
	sort.Strings(children)
	for _, child := range children {
		parents := lo.Map(m[child], func(p string, _ int) Kind { return Kind(p) })
		if err := t.Declare(Kind(child), parents...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Declare records parents as direct ancestors of child. Declaring the same
// parent twice is harmless. A declaration that would introduce a cycle is
// rejected and leaves the table unchanged.
func (t *Table) Declare(child Kind, parents ...Kind) error {
	if child == "" {
		return fmt.Errorf("%w: child kind is empty", ErrInvalidKind)
	}
	for _, p := range parents {
		if p == "" {
			return fmt.Errorf("%w: parent of %q is empty", ErrInvalidKind, child)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range parents {
		if p == child || t.isAncestor(child, p) {
			return fmt.Errorf("%w: %q cannot descend from %q", ErrCycle, child, p)
		}
	}

	t.parents[child] = lo.Uniq(append(t.parents[child], parents...))
	return nil
}

// Parents returns the direct parents of k.
func (t *Table) Parents(k Kind) []Kind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Kind(nil), t.parents[k]...)
}

// Ancestors returns every strict ancestor of k, nearest first.
func (t *Table) Ancestors(k Kind) []Kind {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Kind
	seen := map[Kind]bool{k: true}
	queue := append([]Kind(nil), t.parents[k]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		out = append(out, next)
		queue = append(queue, t.parents[next]...)
	}
	return out
}

// IsAncestorOrSelf implements Hierarchy.
func (t *Table) IsAncestorOrSelf(candidate, k Kind) bool {
	if candidate == k {
		return true
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isAncestor(candidate, k)
}

// isAncestor reports whether candidate is a strict ancestor of k.
// Caller holds the lock.
func (t *Table) isAncestor(candidate, k Kind) bool {
	seen := make(map[Kind]bool)
	stack := append([]Kind(nil), t.parents[k]...)
	for len(stack) > 0 {
		n := len(stack) - 1
		next := stack[n]
		stack = stack[:n]
		if next == candidate {
			return true
		}
		if seen[next] {
			continue
		}
		seen[next] = true
		stack = append(stack, t.parents[next]...)
	}
	return false
}

// Kinds returns every kind that appears in the table, sorted.
func (t *Table) Kinds() []Kind {
	t.mu.RLock()
	defer t.mu.RUnlock()

	all := make([]Kind, 0, len(t.parents))
	for child, parents := range t.parents {
		all = append(all, child)
		all = append(all, parents...)
	}
	all = lo.Uniq(all)
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}
