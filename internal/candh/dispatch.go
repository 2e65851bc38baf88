package candh

import (
	"fmt"

	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/model"
)

// propertyCopy is the state handed to a kind handler.
type propertyCopy struct {
	src   model.Entity
	dst   model.Entity
	typ   *model.Type
	prop  *model.Property
	ctx   *ChangeContext
	entry *history.PendingEntry
}

func (pc *propertyCopy) historized() bool {
	return pc.typ.Historizable && !pc.prop.HistoryExempt
}

// changed classifies a detected change and queues its history attribute.
func (pc *propertyCopy) changed(op history.Op, oldVal, newVal model.Value) {
	if !pc.historized() {
		pc.ctx.Raise(StatusMinor)
		return
	}
	pc.ctx.Raise(StatusMajor)
	if pc.entry != nil {
		pc.entry.Add(history.PendingAttribute{
			Property: pc.prop.Name,
			Kind:     pc.prop.Kind,
			Op:       op,
			Old:      oldVal,
			New:      newVal,
		})
	}
}

func (pc *propertyCopy) get(e model.Entity) model.Value {
	v := pc.prop.Get(e)
	if v == nil {
		return model.Null{}
	}
	return v
}

func (pc *propertyCopy) set(v model.Value) error {
	if err := pc.prop.Set(pc.dst, v); err != nil {
		return newInternalError(pc.typ.Name, pc.prop.Name, err)
	}
	return nil
}

// dispatch routes the property to the handler for its kind. Accessor panics
// are converted to INTERNAL errors.
func (e *Engine) dispatch(pc *propertyCopy) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newInternalError(pc.typ.Name, pc.prop.Name, fmt.Errorf("panic: %v", r))
		}
	}()

	switch pc.prop.Kind {
	case model.KindDecimal:
		handled, err := e.copyDecimal(pc)
		if err != nil || handled {
			return err
		}
		return e.copyGeneric(pc)
	case model.KindDate, model.KindDateTime:
		return e.copyTime(pc)
	case model.KindReference:
		return e.copyReference(pc)
	case model.KindCollection:
		return e.reconcile(pc)
	case model.KindText, model.KindInt, model.KindFloat, model.KindBool:
		return e.copyGeneric(pc)
	default:
		e.logger.Error("no handler for property kind",
			"type", pc.typ.Name,
			"property", pc.prop.Name,
			"kind", pc.prop.Kind.String(),
			"event", string(SkipNoHandler),
		)
		e.observer.PropertySkipped(pc.typ.Name, pc.prop.Name, SkipNoHandler)
		return nil
	}
}

// copyDecimal compares decimals ignoring scale. It declines when either
// side is null so the generic handler can deal with presence changes.
func (e *Engine) copyDecimal(pc *propertyCopy) (bool, error) {
	sv, dv := pc.get(pc.src), pc.get(pc.dst)
	if model.IsNull(sv) || model.IsNull(dv) {
		return false, nil
	}
	sd, err := model.AsDecimal(sv)
	if err != nil {
		return false, newInternalError(pc.typ.Name, pc.prop.Name, err)
	}
	dd, err := model.AsDecimal(dv)
	if err != nil {
		return false, newInternalError(pc.typ.Name, pc.prop.Name, err)
	}
	if sd.Cmp(dd) == 0 {
		return true, nil
	}
	if err := pc.set(sv); err != nil {
		return false, err
	}
	pc.changed(history.OpUpdate, dv, sv)
	return true, nil
}

// copyTime compares date-only properties by calendar day in the engine
// location and date-time properties by instant.
func (e *Engine) copyTime(pc *propertyCopy) error {
	sv, dv := pc.get(pc.src), pc.get(pc.dst)
	st, err := model.AsTime(sv)
	if err != nil {
		return newInternalError(pc.typ.Name, pc.prop.Name, err)
	}
	dt, err := model.AsTime(dv)
	if err != nil {
		return newInternalError(pc.typ.Name, pc.prop.Name, err)
	}

	var equal bool
	switch {
	case st == nil || dt == nil:
		equal = st == nil && dt == nil
	case pc.prop.Kind == model.KindDate:
		sy, sm, sd := st.In(e.loc).Date()
		dy, dm, dd := dt.In(e.loc).Date()
		equal = sy == dy && sm == dm && sd == dd
	default:
		equal = st.Equal(*dt)
	}
	if equal {
		return nil
	}
	if err := pc.set(sv); err != nil {
		return err
	}
	pc.changed(history.OpUpdate, dv, sv)
	return nil
}

// copyReference compares referenced entities by identity. A source
// reference without identity is never assigned.
func (e *Engine) copyReference(pc *propertyCopy) error {
	sv, dv := pc.get(pc.src), pc.get(pc.dst)
	sref, sok := sv.(model.Ref)
	dref, dok := dv.(model.Ref)
	if !model.IsNull(sv) && !sok {
		return newInternalError(pc.typ.Name, pc.prop.Name, fmt.Errorf("expected reference value, got %T", sv))
	}
	if !model.IsNull(dv) && !dok {
		return newInternalError(pc.typ.Name, pc.prop.Name, fmt.Errorf("expected reference value, got %T", dv))
	}

	if model.IsNull(sv) {
		if model.IsNull(dv) {
			return nil
		}
		if err := pc.set(model.Null{}); err != nil {
			return err
		}
		pc.changed(history.OpUpdate, dv, model.Null{})
		return nil
	}

	if _, ok := sref.Entity.EntityID(); !ok {
		e.logger.Error("source reference has no identity",
			"type", pc.typ.Name,
			"property", pc.prop.Name,
			"target", sref.Entity.TypeName(),
			"event", string(SkipReferenceWithoutIdentity),
		)
		e.observer.PropertySkipped(pc.typ.Name, pc.prop.Name, SkipReferenceWithoutIdentity)
		return nil
	}
	if !model.IsNull(dv) && model.SameIdentity(sref.Entity, dref.Entity) {
		return nil
	}
	if err := pc.set(sv); err != nil {
		return err
	}
	pc.changed(history.OpUpdate, dv, sv)
	return nil
}

// copyGeneric handles scalar kinds and null decimals. For text, null and
// the empty string are equal.
func (e *Engine) copyGeneric(pc *propertyCopy) error {
	sv, dv := pc.get(pc.src), pc.get(pc.dst)
	if scalarEqual(pc.prop.Kind, sv, dv) {
		return nil
	}
	if err := pc.set(sv); err != nil {
		return err
	}
	pc.changed(history.OpUpdate, dv, sv)
	return nil
}

func scalarEqual(kind model.Kind, a, b model.Value) bool {
	if kind == model.KindText {
		as, aerr := model.AsString(a)
		bs, berr := model.AsString(b)
		if aerr == nil && berr == nil {
			return as == bs
		}
	}
	an, bn := model.IsNull(a), model.IsNull(b)
	if an || bn {
		return an && bn
	}
	switch av := a.(type) {
	case model.Decimal:
		bv, ok := b.(model.Decimal)
		return ok && av.Apd().Cmp(bv.Apd()) == 0
	case model.Text, model.Int, model.Float, model.Bool:
		return a == b
	default:
		return false
	}
}
