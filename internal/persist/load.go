package persist

import (
	"fmt"

	"github.com/micromata/projectforge-sub013/internal/model"
)

// LoaderFunc adapts a function to model.Loader.
type LoaderFunc func(model.Entity) error

// Load implements model.Loader.
func (f LoaderFunc) Load(e model.Entity) error {
	return f(e)
}

// ForceLoad calls loader for root and every entity reachable through
// references and owned collections, each at most once. Callers run it
// before a copy pass so the engine never observes unloaded state.
func ForceLoad(reg *model.Registry, root model.Entity, loader model.Loader) error {
	seen := make(map[model.Entity]bool)
	var visit func(model.Entity) error
	visit = func(e model.Entity) error {
		if e == nil || seen[e] {
			return nil
		}
		seen[e] = true
		if err := loader.Load(e); err != nil {
			return fmt.Errorf("load %s: %w", e.TypeName(), err)
		}
		t, err := reg.TypeOf(e)
		if err != nil {
			return err
		}
		for _, p := range t.AllProperties() {
			switch {
			case p.Kind == model.KindReference:
				if ref, ok := p.Get(e).(model.Ref); ok {
					if err := visit(ref.Entity); err != nil {
						return err
					}
				}
			case p.IsCollection() && p.Owned:
				for _, m := range model.MembersOf(p.Collection(e)) {
					if err := visit(m); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}
	return visit(root)
}
