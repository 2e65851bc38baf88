package model

// Property describes one declared property of an entity type.
//
// Get and Set are accessor closures; the copy engine never inspects entity
// structs directly. Collection properties supply Collection instead of
// Get/Set and optionally NewCollection for destinations whose collection is
// absent.
type Property struct {
	Name string
	Kind Kind

	// Target names the entity type referenced by a reference or collection
	// property.
	Target string

	// Transient properties are computed rather than persisted. They are
	// copied after all persisted properties.
	Transient bool

	// Synthetic properties are structural artifacts that are never copied.
	Synthetic bool

	// HistoryExempt properties never produce history attributes; changes
	// to them classify as MINOR.
	HistoryExempt bool

	// Owned marks a collection whose membership is maintained by this side
	// of the relationship.
	Owned bool

	// SoftDelete marks a collection whose historizable members are flagged
	// as deleted instead of removed.
	SoftDelete bool

	// Cascade marks a collection whose kept members are synchronized
	// recursively.
	Cascade bool

	Get func(Entity) Value
	Set func(Entity, Value) error

	// Collection returns the live collection, or nil when the owner has none.
	Collection func(Entity) Collection

	// NewCollection installs and returns an empty collection on the owner.
	NewCollection func(Entity) (Collection, error)
}

// IsCollection reports whether p is a collection property.
func (p *Property) IsCollection() bool {
	return p.Kind == KindCollection
}

// Type describes an entity type: its name, optional parent and properties
// in declaration order.
type Type struct {
	Name         string
	Parent       string
	Historizable bool
	Properties   []Property

	parent *Type
	index  map[string]*Property
}

// ParentType returns the resolved parent, or nil for root types. It is only
// set on types owned by a Registry.
func (t *Type) ParentType() *Type {
	return t.parent
}

// Lineage returns t followed by its ancestors, most-derived first.
func (t *Type) Lineage() []*Type {
	var out []*Type
	for cur := t; cur != nil; cur = cur.parent {
		out = append(out, cur)
	}
	return out
}

// AssignableFrom reports whether a value of type src can be copied into a
// destination of type t, i.e. t is src or one of its ancestors.
func (t *Type) AssignableFrom(src *Type) bool {
	for cur := src; cur != nil; cur = cur.parent {
		if cur == t {
			return true
		}
	}
	return false
}

// Property looks up a property declared on t or any ancestor.
func (t *Type) Property(name string) (*Property, bool) {
	for cur := t; cur != nil; cur = cur.parent {
		if p, ok := cur.index[name]; ok {
			return p, true
		}
	}
	return nil, false
}

// AllProperties returns the properties of t and its ancestors,
// most-derived type first, each type's properties in declaration order.
func (t *Type) AllProperties() []*Property {
	var out []*Property
	for _, cur := range t.Lineage() {
		for i := range cur.Properties {
			out = append(out, &cur.Properties[i])
		}
	}
	return out
}

// Loader forces lazily loaded state of an entity graph. Persistence
// collaborators call it before handing entities to the engine.
type Loader interface {
	Load(e Entity) error
}
