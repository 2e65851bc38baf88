package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/micromata/projectforge-sub013/internal/model"
)

// ErrAlreadyFinalized is returned by a second call to Finalize.
var ErrAlreadyFinalized = errors.New("history already finalized")

// Recorder collects the pending entries of one copy pass.
//
// A Recorder is not safe for concurrent use. It is created per pass and
// finalized at most once.
type Recorder struct {
	reg   *model.Registry
	actor string
	ids   IDGenerator
	now   func() time.Time
	loc   *time.Location

	entries   []*PendingEntry
	fresh       map[model.Entity]struct{}
	existing    map[model.Entity]struct{}
	existingIDs map[string]struct{}
	finalized   bool
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithIDGenerator sets the entry id generator. Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) RecorderOption {
	return func(r *Recorder) {
		r.ids = g
	}
}

// WithClock sets the source of entry timestamps. Defaults to time.Now.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithLocation sets the location in which date-only values are rendered.
// Defaults to UTC.
func WithLocation(loc *time.Location) RecorderOption {
	return func(r *Recorder) {
		r.loc = loc
	}
}

// NewRecorder creates a Recorder attributing entries to actor.
func NewRecorder(reg *model.Registry, actor string, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		reg:      reg,
		actor:    actor,
		ids:      UUIDv7Generator{},
		now:      time.Now,
		loc:      time.UTC,
		fresh:       make(map[model.Entity]struct{}),
		existing:    make(map[model.Entity]struct{}),
		existingIDs: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Actor returns the actor entries are attributed to.
func (r *Recorder) Actor() string {
	return r.actor
}

// Begin opens a pending entry for e. parent is nil for the root entity;
// otherwise property names the owned collection on the parent's entity
// holding e.
//
// keep retains the entry even if it ends without attributes.
func (r *Recorder) Begin(parent *PendingEntry, e model.Entity, property string, op Op, keep bool) *PendingEntry {
	entry := &PendingEntry{
		Parent:     parent,
		Entity:     e,
		EntityType: e.TypeName(),
		Op:         op,
		keep:       keep,
	}
	if parent != nil {
		id, ok := e.EntityID()
		entry.Step = Step{Property: property, ID: id, HasID: ok}
		r.MarkExisting(e)
	}
	r.entries = append(r.entries, entry)
	return entry
}

// End closes entry. An entry without attributes is dropped unless it was
// opened with keep.
func (r *Recorder) End(entry *PendingEntry) {
	if entry == nil || entry.closed {
		return
	}
	entry.closed = true
	if len(entry.Attributes) == 0 && !entry.keep {
		entry.dropped = true
	}
}

// MarkNew records that e was added to a collection without an identity.
// Finalize synthesizes an Insert entry for it.
func (r *Recorder) MarkNew(e model.Entity) {
	r.fresh[e] = struct{}{}
}

// MarkExisting records that e was a destination member before the pass.
// Finalize never synthesizes an Insert entry for it, nor for a persisted
// member carrying the same identity.
func (r *Recorder) MarkExisting(e model.Entity) {
	r.existing[e] = struct{}{}
	if id, ok := e.EntityID(); ok {
		r.existingIDs[identityKey(e.TypeName(), id)] = struct{}{}
	}
}

// MarkExistingGraph marks every owned collection member reachable from root
// as existing. Call it on the destination before the pass so that members
// the pass never visits, such as those of an ignored collection, are not
// mistaken for inserts.
func (r *Recorder) MarkExistingGraph(root model.Entity) {
	r.walkOwned(root, func(m model.Entity) bool {
		r.MarkExisting(m)
		return true
	})
}

// Pending returns the retained entries in creation order.
func (r *Recorder) Pending() []*PendingEntry {
	out := make([]*PendingEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if !e.dropped {
			out = append(out, e)
		}
	}
	return out
}

// Finalize resolves pending entries against the persisted graph and
// serializes them. It must run after persistence has assigned identities.
//
// persistedRoot is the destination as committed; originalSource is the root
// the caller passed to the copy. Collection members of persistedRoot that
// were added without identity, or whose identity does not occur in
// originalSource, receive synthesized Insert entries unless they were
// marked existing.
func (r *Recorder) Finalize(persistedRoot, originalSource model.Entity) ([]Entry, error) {
	if r.finalized {
		return nil, ErrAlreadyFinalized
	}
	if persistedRoot == nil {
		return nil, errors.New("finalize: persisted root is nil")
	}
	r.finalized = true

	ts := r.now()
	out := make([]Entry, 0, len(r.entries))
	inserted := make(map[model.Entity]bool)

	for _, pending := range r.entries {
		if pending.dropped {
			continue
		}
		r.End(pending)
		if pending.dropped {
			continue
		}
		target := r.resolve(persistedRoot, pending)
		id, ok := target.EntityID()
		if !ok {
			return nil, fmt.Errorf("finalize %s entry: %w", pending.EntityType, ErrNoIdentity)
		}
		attrs, err := r.serializeAttributes(pending.Attributes)
		if err != nil {
			return nil, fmt.Errorf("finalize %s %d: %w", pending.EntityType, id, err)
		}
		if pending.Op == OpInsert {
			inserted[target] = true
		}
		out = append(out, Entry{
			ID:         r.ids.Generate(),
			EntityType: pending.EntityType,
			EntityID:   id,
			Operation:  pending.Op,
			Actor:      r.actor,
			Timestamp:  ts,
			Attributes: attrs,
		})
	}

	known := make(map[string]bool)
	if originalSource != nil {
		r.collectIDs(originalSource, known)
	}

	var synthErr error
	r.walkOwned(persistedRoot, func(m model.Entity) bool {
		if synthErr != nil || inserted[m] || !r.isNew(m, known) {
			return synthErr == nil
		}
		inserted[m] = true
		if !r.reg.IsHistorizable(m) {
			return true
		}
		entry, err := r.insertEntry(m, ts)
		if err != nil {
			synthErr = err
			return false
		}
		out = append(out, entry)
		return true
	})
	if synthErr != nil {
		return nil, synthErr
	}
	return out, nil
}

func (r *Recorder) isNew(m model.Entity, known map[string]bool) bool {
	if _, ok := r.fresh[m]; ok {
		return true
	}
	if _, ok := r.existing[m]; ok {
		return false
	}
	if d, ok := m.(model.Deletable); ok && d.IsDeleted() {
		return false
	}
	id, ok := m.EntityID()
	if !ok {
		return false
	}
	key := identityKey(m.TypeName(), id)
	if _, ok := r.existingIDs[key]; ok {
		return false
	}
	return !known[key]
}

// resolve follows the entry's ownership path from root. When a step cannot
// be matched by identity it falls back to the entity recorded at diff time.
func (r *Recorder) resolve(root model.Entity, entry *PendingEntry) model.Entity {
	cur := root
	for _, step := range entry.Path() {
		if !step.HasID {
			return entry.Entity
		}
		next := r.member(cur, step)
		if next == nil {
			return entry.Entity
		}
		cur = next
	}
	if cur.TypeName() != entry.EntityType {
		return entry.Entity
	}
	return cur
}

func (r *Recorder) member(owner model.Entity, step Step) model.Entity {
	t, err := r.reg.TypeOf(owner)
	if err != nil {
		return nil
	}
	p, ok := t.Property(step.Property)
	if !ok || !p.IsCollection() {
		return nil
	}
	for _, m := range model.MembersOf(p.Collection(owner)) {
		if id, ok := m.EntityID(); ok && id == step.ID {
			return m
		}
	}
	return nil
}

// walkOwned visits every member of every owned collection reachable from e,
// depth first. visit returns false to stop the walk.
func (r *Recorder) walkOwned(e model.Entity, visit func(model.Entity) bool) bool {
	t, err := r.reg.TypeOf(e)
	if err != nil {
		return true
	}
	for _, p := range t.AllProperties() {
		if !p.IsCollection() || !p.Owned {
			continue
		}
		for _, m := range model.MembersOf(p.Collection(e)) {
			if !visit(m) {
				return false
			}
			if !r.walkOwned(m, visit) {
				return false
			}
		}
	}
	return true
}

// collectIDs gathers identities in the original source graph, skipping
// members that were added without identity: they share objects with the
// persisted graph and carry identities assigned after the copy.
func (r *Recorder) collectIDs(root model.Entity, into map[string]bool) {
	var add func(model.Entity)
	add = func(e model.Entity) {
		if id, ok := e.EntityID(); ok {
			into[identityKey(e.TypeName(), id)] = true
		}
	}
	add(root)
	var walk func(model.Entity)
	walk = func(e model.Entity) {
		t, err := r.reg.TypeOf(e)
		if err != nil {
			return
		}
		for _, p := range t.AllProperties() {
			if !p.IsCollection() || !p.Owned {
				continue
			}
			for _, m := range model.MembersOf(p.Collection(e)) {
				if _, ok := r.fresh[m]; ok {
					continue
				}
				add(m)
				walk(m)
			}
		}
	}
	walk(root)
}

func identityKey(typeName string, id model.ID) string {
	return typeName + "#" + id.String()
}

func (r *Recorder) insertEntry(m model.Entity, ts time.Time) (Entry, error) {
	id, ok := m.EntityID()
	if !ok {
		return Entry{}, fmt.Errorf("finalize inserted %s: %w", m.TypeName(), ErrNoIdentity)
	}
	t, err := r.reg.TypeOf(m)
	if err != nil {
		return Entry{}, fmt.Errorf("finalize inserted %s: %w", m.TypeName(), err)
	}

	var pending []PendingAttribute
	for _, p := range t.AllProperties() {
		if p.IsCollection() || p.Transient || p.Synthetic || p.HistoryExempt {
			continue
		}
		v := p.Get(m)
		if model.IsNull(v) {
			continue
		}
		pending = append(pending, PendingAttribute{Property: p.Name, Kind: p.Kind, Op: OpInsert, Old: model.Null{}, New: v})
	}
	attrs, err := r.serializeAttributes(pending)
	if err != nil {
		return Entry{}, fmt.Errorf("finalize inserted %s %d: %w", m.TypeName(), id, err)
	}
	return Entry{
		ID:         r.ids.Generate(),
		EntityType: m.TypeName(),
		EntityID:   id,
		Operation:  OpInsert,
		Actor:      r.actor,
		Timestamp:  ts,
		Attributes: attrs,
	}, nil
}

func (r *Recorder) serializeAttributes(pending []PendingAttribute) ([]Attribute, error) {
	attrs := make([]Attribute, 0, len(pending))
	for _, pa := range pending {
		oldVal, err := SerializeValue(pa.Kind, pa.Old, r.loc)
		if err != nil {
			return nil, fmt.Errorf("attribute %s old value: %w", pa.Property, err)
		}
		newVal, err := SerializeValue(pa.Kind, pa.New, r.loc)
		if err != nil {
			return nil, fmt.Errorf("attribute %s new value: %w", pa.Property, err)
		}
		attrs = append(attrs, Attribute{
			Property:  pa.Property,
			ValueType: pa.Kind.String(),
			Operation: pa.Op,
			OldValue:  oldVal,
			NewValue:  newVal,
		})
	}
	return attrs, nil
}
