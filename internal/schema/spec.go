package schema

import "cuelang.org/go/cue/token"

// TypeSpec is the compiled declaration of one entity type.
type TypeSpec struct {
	Name         string
	Parent       string
	Historizable bool
	Properties   []PropertySpec

	Pos token.Pos
}

// PropertySpec is the compiled declaration of one property.
type PropertySpec struct {
	Name string

	// Kind is one of the model kind names: text, int, float, bool, decimal,
	// date, datetime, reference, collection.
	Kind   string
	Target string

	Transient     bool
	HistoryExempt bool
	MappedBy      string
	JoinColumn    string
	SoftDelete    bool
	Cascade       bool

	Pos token.Pos
}

// Owned reports whether this side maintains the collection's membership.
func (p PropertySpec) Owned() bool {
	return (p.MappedBy != "" || p.JoinColumn != "") && !p.HistoryExempt
}

// Property returns the property named name declared directly on t.
func (t *TypeSpec) Property(name string) (PropertySpec, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertySpec{}, false
}
