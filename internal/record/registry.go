package record

import (
	"fmt"

	"github.com/micromata/projectforge-sub013/internal/model"
	"github.com/micromata/projectforge-sub013/internal/schema"
)

// BuildRegistry generates record-backed type descriptors from compiled
// schema types. The schema should have passed schema.Validate; remaining
// descriptor problems are reported by model.NewRegistry.
//
// A bool property named "deleted" is bound to the record's soft delete flag
// and is never copied.
func BuildRegistry(specs []schema.TypeSpec) (*model.Registry, error) {
	types := make([]model.Type, 0, len(specs))
	for _, s := range specs {
		t := model.Type{Name: s.Name, Parent: s.Parent, Historizable: s.Historizable}
		for _, ps := range s.Properties {
			kind, err := model.ParseKind(ps.Kind)
			if err != nil {
				return nil, fmt.Errorf("type %s property %s: %w", s.Name, ps.Name, err)
			}
			t.Properties = append(t.Properties, property(ps, kind))
		}
		types = append(types, t)
	}
	return model.NewRegistry(types...)
}

func property(ps schema.PropertySpec, kind model.Kind) model.Property {
	name := ps.Name
	p := model.Property{
		Name:          name,
		Kind:          kind,
		Target:        ps.Target,
		Transient:     ps.Transient,
		HistoryExempt: ps.HistoryExempt,
	}

	switch {
	case kind == model.KindCollection:
		p.Owned = ps.Owned()
		p.SoftDelete = ps.SoftDelete
		p.Cascade = ps.Cascade
		p.Collection = func(e model.Entity) model.Collection {
			items := mustRecord(e).lists[name]
			if items == nil {
				return nil
			}
			return model.SliceOf(items)
		}
		p.NewCollection = func(e model.Entity) (model.Collection, error) {
			r, err := asRecord(e)
			if err != nil {
				return nil, err
			}
			return model.SliceOf(r.list(name)), nil
		}
	case name == schema.DeletedProperty && kind == model.KindBool:
		p.Synthetic = true
		p.Get = func(e model.Entity) model.Value {
			return model.Bool(mustRecord(e).deleted)
		}
		p.Set = func(e model.Entity, v model.Value) error {
			r, err := asRecord(e)
			if err != nil {
				return err
			}
			b, err := model.AsBool(v)
			if err != nil {
				return err
			}
			r.deleted = b
			return nil
		}
	default:
		p.Get = func(e model.Entity) model.Value {
			return mustRecord(e).Get(name)
		}
		p.Set = func(e model.Entity, v model.Value) error {
			r, err := asRecord(e)
			if err != nil {
				return err
			}
			if err := checkKind(kind, v); err != nil {
				return fmt.Errorf("set %s.%s: %w", r.typ, name, err)
			}
			r.Set(name, v)
			return nil
		}
	}
	return p
}

func asRecord(e model.Entity) (*Record, error) {
	r, ok := e.(*Record)
	if !ok || r == nil {
		return nil, fmt.Errorf("expected *record.Record, got %T", e)
	}
	return r, nil
}

// mustRecord backs the accessors that cannot return an error. The copy
// engine recovers the panic into an internal error.
func mustRecord(e model.Entity) *Record {
	r, err := asRecord(e)
	if err != nil {
		panic(err)
	}
	return r
}

func checkKind(kind model.Kind, v model.Value) error {
	if model.IsNull(v) {
		return nil
	}
	ok := false
	switch v.(type) {
	case model.Text:
		ok = kind == model.KindText
	case model.Int:
		ok = kind == model.KindInt
	case model.Float:
		ok = kind == model.KindFloat
	case model.Bool:
		ok = kind == model.KindBool
	case model.Decimal:
		ok = kind == model.KindDecimal
	case model.Time:
		ok = kind == model.KindDate || kind == model.KindDateTime
	case model.Ref:
		ok = kind == model.KindReference
	}
	if !ok {
		return fmt.Errorf("%T is not a %s value", v, kind)
	}
	return nil
}

// Verifier checks that a graph consists of records of registered types
// carrying only declared properties. It implements model.Loader, so it can
// be run over a graph with persist.ForceLoad before copying.
type Verifier struct {
	reg *model.Registry
}

// NewVerifier creates a Verifier for reg.
func NewVerifier(reg *model.Registry) *Verifier {
	return &Verifier{reg: reg}
}

// Load implements model.Loader.
func (v *Verifier) Load(e model.Entity) error {
	r, err := asRecord(e)
	if err != nil {
		return err
	}
	t, err := v.reg.TypeOf(r)
	if err != nil {
		return err
	}
	for _, name := range r.Fields() {
		p, ok := t.Property(name)
		if !ok || p.IsCollection() {
			return fmt.Errorf("%s: undeclared property %q", r, name)
		}
		if err := checkKind(p.Kind, r.values[name]); err != nil {
			return fmt.Errorf("%s.%s: %w", r, name, err)
		}
	}
	for _, name := range r.Collections() {
		p, ok := t.Property(name)
		if !ok || !p.IsCollection() {
			return fmt.Errorf("%s: undeclared collection %q", r, name)
		}
	}
	return nil
}
