package persist

import (
	"fmt"

	"github.com/micromata/projectforge-sub013/internal/model"
)

// Assigner assigns identities to new entities of a graph.
type Assigner struct {
	reg *model.Registry
	seq *Sequence
}

// NewAssigner creates an Assigner with a fresh sequence.
func NewAssigner(reg *model.Registry) *Assigner {
	return &Assigner{reg: reg, seq: NewSequence()}
}

// NewAssignerWithSequence creates an Assigner drawing from seq, so several
// graphs can share one identity space.
func NewAssignerWithSequence(reg *model.Registry, seq *Sequence) *Assigner {
	return &Assigner{reg: reg, seq: seq}
}

// Assign gives every entity reachable from root through owned collections,
// root included, an identity if it has none. It returns how many identities
// were assigned.
//
// Assignment order is depth first in property declaration order, owner
// before members, so the same graph always receives the same identities.
func (a *Assigner) Assign(root model.Entity) (int, error) {
	var maxID int64
	if err := a.walk(root, func(e model.Entity) {
		if id, ok := e.EntityID(); ok && int64(id) > maxID {
			maxID = int64(id)
		}
	}); err != nil {
		return 0, fmt.Errorf("scan identities: %w", err)
	}
	a.seq.AdvanceTo(maxID)

	assigned := 0
	if err := a.walk(root, func(e model.Entity) {
		if _, ok := e.EntityID(); !ok {
			e.SetEntityID(model.ID(a.seq.Next()), true)
			assigned++
		}
	}); err != nil {
		return 0, fmt.Errorf("assign identities: %w", err)
	}
	return assigned, nil
}

func (a *Assigner) walk(e model.Entity, visit func(model.Entity)) error {
	t, err := a.reg.TypeOf(e)
	if err != nil {
		return err
	}
	visit(e)
	for _, p := range t.AllProperties() {
		if !p.IsCollection() || !p.Owned {
			continue
		}
		for _, m := range model.MembersOf(p.Collection(e)) {
			if err := a.walk(m, visit); err != nil {
				return fmt.Errorf("%s.%s: %w", t.Name, p.Name, err)
			}
		}
	}
	return nil
}
