package model

import "fmt"

// Collection is a mutable, identity-stable view over an entity's collection
// property. Reconciliation mutates the collection in place; the instance held
// by the owner is never replaced.
type Collection interface {
	// Members returns a snapshot of the current members in order.
	Members() []Entity

	// Add appends m. It fails if m has the wrong concrete type.
	Add(m Entity) error

	// Remove removes m, matched by pointer equality. It reports whether m was
	// present.
	Remove(m Entity) bool

	// Clear removes every member.
	Clear()
}

// Slice adapts a *[]P to the Collection interface.
type Slice[P interface {
	*E
	Entity
}, E any] struct {
	items *[]P
}

// SliceOf returns a Collection backed by the slice at items.
func SliceOf[P interface {
	*E
	Entity
}, E any](items *[]P) *Slice[P, E] {
	return &Slice[P, E]{items: items}
}

// Members implements Collection.
func (s *Slice[P, E]) Members() []Entity {
	out := make([]Entity, 0, len(*s.items))
	for _, it := range *s.items {
		out = append(out, it)
	}
	return out
}

// Add implements Collection.
func (s *Slice[P, E]) Add(m Entity) error {
	p, ok := m.(P)
	if !ok {
		return fmt.Errorf("cannot add %T to collection of %T", m, *new(P))
	}
	*s.items = append(*s.items, p)
	return nil
}

// Remove implements Collection.
func (s *Slice[P, E]) Remove(m Entity) bool {
	p, ok := m.(P)
	if !ok {
		return false
	}
	items := *s.items
	for i, it := range items {
		if it == p {
			*s.items = append(items[:i], items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear implements Collection.
func (s *Slice[P, E]) Clear() {
	*s.items = (*s.items)[:0]
}

// MembersOf returns the members of c, or nil when c is nil.
func MembersOf(c Collection) []Entity {
	if c == nil {
		return nil
	}
	return c.Members()
}
