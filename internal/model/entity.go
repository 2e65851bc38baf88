package model

import "strconv"

// ID is the persistent identity of an entity.
type ID int64

// String returns the decimal form of the identity.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Entity is a persistence-backed domain object.
//
// EntityID reports false while the entity has no identity yet (it was
// created by the caller and not persisted).
type Entity interface {
	TypeName() string
	EntityID() (ID, bool)
	SetEntityID(id ID, ok bool)
}

// Deletable is implemented by entities that support soft deletion.
type Deletable interface {
	Entity
	IsDeleted() bool
	SetDeleted(deleted bool)
}

// Keyed is implemented by entities that can be matched structurally while
// they have no identity.
type Keyed interface {
	Entity
	NaturalKey() string
}

// Base carries the optional identity of an entity. Embed it in entity
// structs to satisfy the identity half of Entity.
type Base struct {
	ID *ID `json:"id,omitempty" yaml:"id,omitempty"`
}

// EntityID returns the identity and whether one is set.
func (b *Base) EntityID() (ID, bool) {
	if b.ID == nil {
		return 0, false
	}
	return *b.ID, true
}

// SetEntityID sets the identity, or clears it when ok is false.
func (b *Base) SetEntityID(id ID, ok bool) {
	if !ok {
		b.ID = nil
		return
	}
	v := id
	b.ID = &v
}

// IDPtr returns a pointer to an identity, for struct literals.
func IDPtr(v int64) *ID {
	id := ID(v)
	return &id
}

// SameIdentity reports whether both entities have an identity and it is
// equal. Entities without identity are never the same by identity.
func SameIdentity(a, b Entity) bool {
	if a == nil || b == nil {
		return false
	}
	aid, aok := a.EntityID()
	bid, bok := b.EntityID()
	return aok && bok && aid == bid
}
