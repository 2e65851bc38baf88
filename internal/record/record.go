package record

import (
	"fmt"
	"sort"

	"github.com/micromata/projectforge-sub013/internal/model"
)

// Record is a map-backed entity. The zero value is not usable; create
// records with New.
type Record struct {
	model.Base

	typ     string
	deleted bool
	values  map[string]model.Value
	lists   map[string]*[]*Record
}

// New creates an empty record of the named type.
func New(typ string) *Record {
	return &Record{
		typ:    typ,
		values: make(map[string]model.Value),
		lists:  make(map[string]*[]*Record),
	}
}

// WithID sets the identity and returns r, for fixtures.
func (r *Record) WithID(id int64) *Record {
	r.SetEntityID(model.ID(id), true)
	return r
}

// TypeName implements model.Entity.
func (r *Record) TypeName() string {
	return r.typ
}

// IsDeleted implements model.Deletable.
func (r *Record) IsDeleted() bool {
	return r.deleted
}

// SetDeleted implements model.Deletable.
func (r *Record) SetDeleted(deleted bool) {
	r.deleted = deleted
}

// Get returns the value of a non-collection property, or Null.
func (r *Record) Get(name string) model.Value {
	if v, ok := r.values[name]; ok {
		return v
	}
	return model.Null{}
}

// Set stores v. Storing a null value clears the property.
func (r *Record) Set(name string, v model.Value) {
	if model.IsNull(v) {
		delete(r.values, name)
		return
	}
	r.values[name] = v
}

// Fields returns the names of the set non-collection properties, sorted.
func (r *Record) Fields() []string {
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Members returns the members of a collection property. It returns nil
// when the record has no such collection.
func (r *Record) Members(name string) []*Record {
	if items := r.lists[name]; items != nil {
		return *items
	}
	return nil
}

// HasCollection reports whether the collection property is present, even
// if empty.
func (r *Record) HasCollection(name string) bool {
	return r.lists[name] != nil
}

// Collections returns the names of the present collection properties, sorted.
func (r *Record) Collections() []string {
	names := make([]string, 0, len(r.lists))
	for name := range r.lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Append adds members to a collection property, creating it if absent.
func (r *Record) Append(name string, members ...*Record) *Record {
	items := r.list(name)
	*items = append(*items, members...)
	return r
}

func (r *Record) list(name string) *[]*Record {
	items := r.lists[name]
	if items == nil {
		items = &[]*Record{}
		r.lists[name] = items
	}
	return items
}

func (r *Record) String() string {
	if id, ok := r.EntityID(); ok {
		return fmt.Sprintf("%s#%d", r.typ, id)
	}
	return r.typ + "#new"
}
