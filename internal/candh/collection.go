package candh

import (
	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/model"
)

// Pair is a source member matched with its destination counterpart.
type Pair struct {
	Source model.Entity
	Dest   model.Entity
}

// Diff is the partition of a source collection against a destination
// collection.
type Diff struct {
	Added   []model.Entity
	Removed []model.Entity
	Kept    []Pair
}

// Partition splits src and dst members into added, removed and kept sets.
//
// Members are matched by identity. A source member without identity is
// matched by natural key when it implements model.Keyed, otherwise only
// with the very same destination object. Each destination member is matched
// at most once. Output preserves input order.
func Partition(src, dst []model.Entity) Diff {
	byID := make(map[model.ID]int)
	byKey := make(map[string]int)
	for i, m := range dst {
		if id, ok := m.EntityID(); ok {
			if _, dup := byID[id]; !dup {
				byID[id] = i
			}
		}
		if k, ok := m.(model.Keyed); ok {
			if _, dup := byKey[k.NaturalKey()]; !dup {
				byKey[k.NaturalKey()] = i
			}
		}
	}

	matched := make([]bool, len(dst))
	var diff Diff
	for _, m := range src {
		idx := matchIndex(m, dst, matched, byID, byKey)
		if idx < 0 {
			diff.Added = append(diff.Added, m)
			continue
		}
		matched[idx] = true
		diff.Kept = append(diff.Kept, Pair{Source: m, Dest: dst[idx]})
	}
	for i, m := range dst {
		if !matched[i] {
			diff.Removed = append(diff.Removed, m)
		}
	}
	return diff
}

func matchIndex(m model.Entity, dst []model.Entity, matched []bool, byID map[model.ID]int, byKey map[string]int) int {
	if id, ok := m.EntityID(); ok {
		if i, found := byID[id]; found && !matched[i] {
			return i
		}
		return -1
	}
	if k, ok := m.(model.Keyed); ok {
		if i, found := byKey[k.NaturalKey()]; found && !matched[i] {
			return i
		}
	}
	for i, d := range dst {
		if !matched[i] && d == m {
			return i
		}
	}
	return -1
}

func isSoftDeleted(m model.Entity) bool {
	d, ok := m.(model.Deletable)
	return ok && d.IsDeleted()
}

func liveMembers(p *model.Property, members []model.Entity) []model.Entity {
	if !p.SoftDelete {
		return members
	}
	live := make([]model.Entity, 0, len(members))
	for _, m := range members {
		if !isSoftDeleted(m) {
			live = append(live, m)
		}
	}
	return live
}

// findDeleted returns the soft-deleted destination member matching m.
func findDeleted(m model.Entity, members []model.Entity) model.Deletable {
	var deleted []model.Entity
	for _, d := range members {
		if isSoftDeleted(d) {
			deleted = append(deleted, d)
		}
	}
	diff := Partition([]model.Entity{m}, deleted)
	if len(diff.Kept) == 0 {
		return nil
	}
	return diff.Kept[0].Dest.(model.Deletable)
}

// reconcile synchronizes an owned collection property. The destination
// collection instance is mutated in place and never replaced. Soft-deleted
// source members count as absent.
func (e *Engine) reconcile(pc *propertyCopy) error {
	p := pc.prop
	if !p.Owned {
		return nil
	}

	srcMembers := liveMembers(p, model.MembersOf(p.Collection(pc.src)))
	dstColl := p.Collection(pc.dst)
	all := model.MembersOf(dstColl)
	before := liveMembers(p, all)
	if len(srcMembers) == 0 && len(before) == 0 {
		return nil
	}

	if dstColl == nil {
		var err error
		if p.NewCollection != nil {
			dstColl, err = p.NewCollection(pc.dst)
		}
		if dstColl == nil {
			e.logger.Error("destination collection unavailable",
				"type", pc.typ.Name,
				"property", p.Name,
				"error", err,
				"event", string(SkipCollectionUnavailable),
			)
			e.observer.PropertySkipped(pc.typ.Name, p.Name, SkipCollectionUnavailable)
			return nil
		}
	}

	rec := pc.ctx.Recorder
	diff := Partition(srcMembers, before)

	for _, m := range diff.Removed {
		e.removeMember(pc, dstColl, m)
	}

	for _, m := range diff.Added {
		if p.SoftDelete {
			if d := findDeleted(m, all); d != nil {
				if err := e.reactivate(pc, m, d); err != nil {
					return err
				}
				continue
			}
		}
		if err := dstColl.Add(m); err != nil {
			return newInternalError(pc.typ.Name, p.Name, err)
		}
		if _, ok := m.EntityID(); !ok && rec != nil {
			rec.MarkNew(m)
		}
	}

	for _, pair := range diff.Kept {
		if rec != nil {
			rec.MarkExisting(pair.Dest)
		}
	}
	if p.Cascade {
		for _, pair := range diff.Kept {
			nested := &ChangeContext{Recorder: rec}
			var entry *history.PendingEntry
			if rec != nil {
				entry = rec.Begin(pc.entry, pair.Dest, p.Name, history.OpUpdate, false)
			}
			err := e.copyMember(pair.Source, pair.Dest, nested, entry)
			if rec != nil {
				rec.End(entry)
			}
			if err != nil {
				return err
			}
			pc.ctx.Raise(nested.Status())
		}
	}

	if len(diff.Added) == 0 && len(diff.Removed) == 0 {
		return nil
	}
	op := history.OpUpdate
	switch {
	case len(diff.Removed) == 0:
		op = history.OpInsert
	case len(diff.Added) == 0:
		op = history.OpDelete
	}
	after := liveMembers(p, model.MembersOf(dstColl))
	pc.changed(op, model.Members(before), model.Members(after))
	return nil
}

// removeMember soft deletes m when the collection allows it and m is
// historizable, otherwise removes it physically.
func (e *Engine) removeMember(pc *propertyCopy, coll model.Collection, m model.Entity) {
	rec := pc.ctx.Recorder
	historizable := e.reg.IsHistorizable(m)

	if d, ok := m.(model.Deletable); ok && pc.prop.SoftDelete && historizable {
		d.SetDeleted(true)
		if rec != nil {
			entry := rec.Begin(pc.entry, m, pc.prop.Name, history.OpUpdate, false)
			entry.Add(deletedAttribute(false, true))
			rec.End(entry)
		}
		return
	}

	coll.Remove(m)
	if rec != nil && historizable {
		entry := rec.Begin(pc.entry, m, pc.prop.Name, history.OpDelete, true)
		rec.End(entry)
	}
}

// reactivate clears the deleted flag of d in place, then synchronizes its
// content from src when the collection cascades.
func (e *Engine) reactivate(pc *propertyCopy, src model.Entity, d model.Deletable) error {
	rec := pc.ctx.Recorder
	d.SetDeleted(false)

	var entry *history.PendingEntry
	if rec != nil {
		entry = rec.Begin(pc.entry, d, pc.prop.Name, history.OpUpdate, false)
		if e.reg.IsHistorizable(d) {
			entry.Add(deletedAttribute(true, false))
		}
	}
	var err error
	if pc.prop.Cascade {
		nested := &ChangeContext{Recorder: rec}
		err = e.copyMember(src, d, nested, entry)
		pc.ctx.Raise(nested.Status())
	}
	if rec != nil {
		rec.End(entry)
	}
	return err
}

func deletedAttribute(oldVal, newVal bool) history.PendingAttribute {
	return history.PendingAttribute{
		Property: "deleted",
		Kind:     model.KindBool,
		Op:       history.OpUpdate,
		Old:      model.Bool(oldVal),
		New:      model.Bool(newVal),
	}
}
