package candh

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/model"
)

// Engine copies entities described by a model.Registry.
//
// An Engine is immutable after New and safe for concurrent use. All mutable
// state of a pass lives in its ChangeContext.
type Engine struct {
	reg         *model.Registry
	logger      *slog.Logger
	loc         *time.Location
	observer    Observer
	historyOpts []history.RecorderOption
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for recovered conditions. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithLocation sets the location in which date-only properties are
// truncated to calendar days. Defaults to UTC.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		e.loc = loc
	}
}

// WithObserver sets the observer notified of completed passes and skipped
// properties.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithHistoryOptions sets options applied to every pass recorder.
func WithHistoryOptions(opts ...history.RecorderOption) EngineOption {
	return func(e *Engine) {
		e.historyOpts = append(e.historyOpts, opts...)
	}
}

// New creates an Engine over reg.
func New(reg *model.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		reg:      reg,
		logger:   slog.Default(),
		loc:      time.UTC,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine copies with.
func (e *Engine) Registry() *model.Registry {
	return e.reg
}

// Request parameterizes a copy pass.
type Request struct {
	// Ignore names properties of the root entity that are not copied. It
	// does not apply to nested collection members or to the identity.
	Ignore []string

	// Operation is the history operation of the root entry. Defaults to
	// history.OpUpdate.
	Operation history.Op

	// Actor is recorded on every history entry.
	Actor string

	// NoHistory disables recording. The returned context has no Recorder.
	NoHistory bool
}

// Copy copies src into dst as an update, skipping the ignored properties.
func (e *Engine) Copy(src, dst model.Entity, ignore ...string) (*ChangeContext, error) {
	return e.CopyWith(src, dst, Request{Ignore: ignore})
}

// CopyWith copies src into dst as described by req.
//
// dst must be of src's type or one of its ancestors. On success dst holds
// src's values for every processed property and the returned context
// carries the pass status and pending history.
func (e *Engine) CopyWith(src, dst model.Entity, req Request) (*ChangeContext, error) {
	srcType, dstType, err := e.types(src, dst)
	if err != nil {
		return nil, err
	}

	op := req.Operation
	if op == history.OpUndefined {
		op = history.OpUpdate
	}

	ctx := &ChangeContext{}
	var entry *history.PendingEntry
	if !req.NoHistory {
		opts := append([]history.RecorderOption{history.WithLocation(e.loc)}, e.historyOpts...)
		ctx.Recorder = history.NewRecorder(e.reg, req.Actor, opts...)
		keep := dstType.Historizable && (op == history.OpInsert || op == history.OpDelete)
		ctx.Recorder.MarkExistingGraph(dst)
		entry = ctx.Recorder.Begin(nil, dst, "", op, keep)
	}

	ignore := make(map[string]bool, len(req.Ignore))
	for _, name := range req.Ignore {
		ignore[name] = true
	}

	if err := e.copyEntity(src, dst, dstType, ignore, ctx, entry); err != nil {
		return nil, fmt.Errorf("copy %s: %w", srcType.Name, err)
	}
	if ctx.Recorder != nil {
		ctx.Recorder.End(entry)
	}

	e.logger.Debug("copy completed",
		"type", dstType.Name,
		"status", ctx.Status().String(),
		"event", "copy_completed",
	)
	e.observer.CopyCompleted(dstType.Name, ctx.Status())
	return ctx, nil
}

func (e *Engine) types(src, dst model.Entity) (*model.Type, *model.Type, error) {
	if src == nil || dst == nil {
		return nil, nil, &CopyError{Code: ErrCodeTypeMismatch, Message: "source and destination must not be nil"}
	}
	srcType, err := e.reg.TypeOf(src)
	if err != nil {
		return nil, nil, &CopyError{Code: ErrCodeTypeMismatch, Message: "source type is not registered", Type: src.TypeName(), Err: err}
	}
	dstType, err := e.reg.TypeOf(dst)
	if err != nil {
		return nil, nil, &CopyError{Code: ErrCodeTypeMismatch, Message: "destination type is not registered", Type: dst.TypeName(), Err: err}
	}
	if !dstType.AssignableFrom(srcType) {
		return nil, nil, newTypeMismatchError(srcType.Name, dstType.Name)
	}
	return srcType, dstType, nil
}

// copyEntity copies every property of dstType's lineage from src to dst.
// entry is the pending history entry of dst, or nil.
func (e *Engine) copyEntity(src, dst model.Entity, dstType *model.Type, ignore map[string]bool, ctx *ChangeContext, entry *history.PendingEntry) error {
	if id, ok := src.EntityID(); ok {
		dst.SetEntityID(id, true)
	}

	props := dstType.AllProperties()
	for _, transient := range []bool{false, true} {
		for _, p := range props {
			if p.Transient != transient || p.Synthetic || ignore[p.Name] {
				continue
			}
			pc := &propertyCopy{
				src:   src,
				dst:   dst,
				typ:   dstType,
				prop:  p,
				ctx:   ctx,
				entry: entry,
			}
			if err := e.dispatch(pc); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyMember copies a collection member into its destination counterpart
// within a nested context. The ignore list of the root does not apply.
func (e *Engine) copyMember(src, dst model.Entity, ctx *ChangeContext, entry *history.PendingEntry) error {
	_, dstType, err := e.types(src, dst)
	if err != nil {
		return err
	}
	return e.copyEntity(src, dst, dstType, nil, ctx, entry)
}
