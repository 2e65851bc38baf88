package model

import (
	"errors"
	"fmt"
	"sort"
)

// IDProperty is the reserved identity property name. Types must not declare
// it; identity is carried by Entity.EntityID.
const IDProperty = "id"

// Registry is an immutable set of entity type descriptors.
//
// Build it once at start-up with NewRegistry and share it freely; no method
// mutates it.
type Registry struct {
	types map[string]*Type
}

// DescriptorError reports an invalid type descriptor.
type DescriptorError struct {
	Type     string
	Property string
	Message  string
}

// Error implements the error interface.
func (e *DescriptorError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("type %s, property %s: %s", e.Type, e.Property, e.Message)
	}
	return fmt.Sprintf("type %s: %s", e.Type, e.Message)
}

// NewRegistry validates and links the given types.
//
// Every property must carry a known kind and the accessors its kind needs;
// reference and collection targets and parents must be registered; parent
// chains must be acyclic; property names must be unique across a lineage.
// All descriptor problems are joined into the returned error.
func NewRegistry(types ...Type) (*Registry, error) {
	r := &Registry{types: make(map[string]*Type, len(types))}
	var errs []error

	for i := range types {
		t := types[i]
		if t.Name == "" {
			errs = append(errs, &DescriptorError{Type: "<unnamed>", Message: "type name is empty"})
			continue
		}
		if _, dup := r.types[t.Name]; dup {
			errs = append(errs, &DescriptorError{Type: t.Name, Message: "duplicate type"})
			continue
		}
		t.Properties = append([]Property(nil), t.Properties...)
		t.index = make(map[string]*Property, len(t.Properties))
		for j := range t.Properties {
			p := &t.Properties[j]
			if _, dup := t.index[p.Name]; dup {
				errs = append(errs, &DescriptorError{Type: t.Name, Property: p.Name, Message: "duplicate property"})
				continue
			}
			t.index[p.Name] = p
		}
		r.types[t.Name] = &t
	}

	for _, name := range r.Names() {
		t := r.types[name]
		if t.Parent != "" {
			parent, ok := r.types[t.Parent]
			if !ok {
				errs = append(errs, &DescriptorError{Type: t.Name, Message: fmt.Sprintf("unknown parent %q", t.Parent)})
			} else {
				t.parent = parent
			}
		}
	}

	for _, name := range r.Names() {
		if err := r.checkAcyclic(r.types[name]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, name := range r.Names() {
		errs = append(errs, r.checkType(r.types[name])...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

func (r *Registry) checkAcyclic(t *Type) error {
	seen := map[*Type]bool{}
	for cur := t; cur != nil; cur = cur.parent {
		if seen[cur] {
			return &DescriptorError{Type: t.Name, Message: "parent chain is cyclic"}
		}
		seen[cur] = true
	}
	return nil
}

func (r *Registry) checkType(t *Type) []error {
	var errs []error
	fail := func(p *Property, format string, args ...any) {
		errs = append(errs, &DescriptorError{Type: t.Name, Property: p.Name, Message: fmt.Sprintf(format, args...)})
	}

	for i := range t.Properties {
		p := &t.Properties[i]
		if p.Name == "" {
			fail(p, "property name is empty")
			continue
		}
		if p.Name == IDProperty {
			fail(p, "%q is reserved for entity identity", IDProperty)
			continue
		}
		for anc := t.parent; anc != nil; anc = anc.parent {
			if _, ok := anc.index[p.Name]; ok {
				fail(p, "shadows property declared on %s", anc.Name)
			}
		}
		if !p.Kind.Valid() {
			fail(p, "unknown kind %s", p.Kind)
			continue
		}

		switch p.Kind {
		case KindReference, KindCollection:
			if p.Target == "" {
				fail(p, "%s property needs a target type", p.Kind)
			} else if _, ok := r.types[p.Target]; !ok {
				fail(p, "unknown target type %q", p.Target)
			}
		}

		if p.Kind == KindCollection {
			if p.Collection == nil {
				fail(p, "collection property has no Collection accessor")
			}
		} else {
			if p.Get == nil || p.Set == nil {
				fail(p, "%s property needs Get and Set accessors", p.Kind)
			}
			if p.Owned || p.SoftDelete || p.Cascade {
				fail(p, "owned, softDelete and cascade apply to collections only")
			}
		}
	}
	return errs
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// TypeOf returns the descriptor for e's runtime type.
func (r *Registry) TypeOf(e Entity) (*Type, error) {
	if e == nil {
		return nil, errors.New("nil entity")
	}
	t, ok := r.types[e.TypeName()]
	if !ok {
		return nil, fmt.Errorf("unregistered entity type %q", e.TypeName())
	}
	return t, nil
}

// Names returns registered type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsHistorizable reports whether entities of e's type record history.
// Unregistered entities are not historizable.
func (r *Registry) IsHistorizable(e Entity) bool {
	t, err := r.TypeOf(e)
	return err == nil && t.Historizable
}
