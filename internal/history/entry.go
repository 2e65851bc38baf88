package history

import (
	"time"

	"github.com/micromata/projectforge-sub013/internal/model"
)

// Entry is a finalized audit record for one entity.
type Entry struct {
	ID         string      `json:"id"`
	EntityType string      `json:"entityType"`
	EntityID   model.ID    `json:"entityId"`
	Operation  Op          `json:"operation"`
	Actor      string      `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute is one finalized property change. Nil values mean null.
type Attribute struct {
	Property  string  `json:"property"`
	ValueType string  `json:"valueType"`
	Operation Op      `json:"operation"`
	OldValue  *string `json:"oldValue"`
	NewValue  *string `json:"newValue"`
}

// PendingAttribute is a property change queued during the copy pass. Values
// stay unserialized until Finalize.
type PendingAttribute struct {
	Property string
	Kind     model.Kind
	Op       Op
	Old      model.Value
	New      model.Value
}

// Step is one hop of an ownership path: the collection property on the
// parent and the identity the member carried when the step was recorded.
type Step struct {
	Property string
	ID       model.ID
	HasID    bool
}

// PendingEntry is an audit entry under construction. Its owner is reached
// from the root entity by following Path.
type PendingEntry struct {
	Parent     *PendingEntry
	Step       Step
	Entity     model.Entity
	EntityType string
	Op         Op
	Attributes []PendingAttribute

	keep    bool
	closed  bool
	dropped bool
}

// Add queues an attribute on the entry.
func (p *PendingEntry) Add(attr PendingAttribute) {
	p.Attributes = append(p.Attributes, attr)
}

// Path returns the ownership steps from the root entity to the entry's
// entity. The root entry has an empty path.
func (p *PendingEntry) Path() []Step {
	var steps []Step
	for cur := p; cur != nil && cur.Parent != nil; cur = cur.Parent {
		steps = append(steps, cur.Step)
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}

// Dropped reports whether End discarded the entry.
func (p *PendingEntry) Dropped() bool {
	return p.dropped
}
