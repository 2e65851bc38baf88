package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	Base
	Text string
}

func (*note) TypeName() string { return "Note" }

func textProp(name string) Property {
	return Property{
		Name: name,
		Kind: KindText,
		Get:  func(Entity) Value { return Null{} },
		Set:  func(Entity, Value) error { return nil },
	}
}

func TestNewRegistry_LinksParents(t *testing.T) {
	r, err := NewRegistry(
		Type{Name: "Derived", Parent: "Base", Properties: []Property{textProp("extra")}},
		Type{Name: "Base", Historizable: true, Properties: []Property{textProp("title")}},
	)
	require.NoError(t, err)

	derived, ok := r.Lookup("Derived")
	require.True(t, ok)
	base, ok := r.Lookup("Base")
	require.True(t, ok)

	assert.Same(t, base, derived.ParentType())
	assert.True(t, base.AssignableFrom(derived))
	assert.False(t, derived.AssignableFrom(base))

	props := derived.AllProperties()
	require.Len(t, props, 2)
	assert.Equal(t, "extra", props[0].Name, "most-derived properties come first")
	assert.Equal(t, "title", props[1].Name)

	p, ok := derived.Property("title")
	require.True(t, ok)
	assert.Equal(t, KindText, p.Kind)

	assert.Equal(t, []string{"Base", "Derived"}, r.Names())
}

func TestNewRegistry_RejectsBadDescriptors(t *testing.T) {
	tests := []struct {
		name  string
		types []Type
		want  string
	}{
		{
			name:  "reserved id",
			types: []Type{{Name: "A", Properties: []Property{textProp("id")}}},
			want:  "reserved",
		},
		{
			name:  "unknown kind",
			types: []Type{{Name: "A", Properties: []Property{{Name: "x"}}}},
			want:  "unknown kind",
		},
		{
			name:  "missing accessors",
			types: []Type{{Name: "A", Properties: []Property{{Name: "x", Kind: KindInt}}}},
			want:  "needs Get and Set",
		},
		{
			name: "unknown target",
			types: []Type{{Name: "A", Properties: []Property{{
				Name: "owner", Kind: KindReference, Target: "Nope",
				Get: func(Entity) Value { return Null{} },
				Set: func(Entity, Value) error { return nil },
			}}}},
			want: "unknown target",
		},
		{
			name: "collection without accessor",
			types: []Type{
				{Name: "A", Properties: []Property{{Name: "items", Kind: KindCollection, Target: "A"}}},
			},
			want: "no Collection accessor",
		},
		{
			name:  "collection flags on scalar",
			types: []Type{{Name: "A", Properties: []Property{func() Property { p := textProp("x"); p.Cascade = true; return p }()}}},
			want:  "collections only",
		},
		{
			name:  "unknown parent",
			types: []Type{{Name: "A", Parent: "Missing"}},
			want:  "unknown parent",
		},
		{
			name:  "parent cycle",
			types: []Type{{Name: "A", Parent: "B"}, {Name: "B", Parent: "A"}},
			want:  "cyclic",
		},
		{
			name: "shadowed property",
			types: []Type{
				{Name: "A", Properties: []Property{textProp("title")}},
				{Name: "B", Parent: "A", Properties: []Property{textProp("title")}},
			},
			want: "shadows",
		},
		{
			name:  "duplicate type",
			types: []Type{{Name: "A"}, {Name: "A"}},
			want:  "duplicate type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.types...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistry_TypeOf(t *testing.T) {
	r, err := NewRegistry(Type{Name: "Note", Historizable: true})
	require.NoError(t, err)

	typ, err := r.TypeOf(&note{})
	require.NoError(t, err)
	assert.Equal(t, "Note", typ.Name)
	assert.True(t, r.IsHistorizable(&note{}))

	_, err = r.TypeOf(nil)
	assert.Error(t, err)
}

func TestBase_Identity(t *testing.T) {
	n := &note{}
	_, ok := n.EntityID()
	assert.False(t, ok)

	n.SetEntityID(7, true)
	id, ok := n.EntityID()
	assert.True(t, ok)
	assert.Equal(t, ID(7), id)

	other := &note{Base: Base{ID: IDPtr(7)}}
	assert.True(t, SameIdentity(n, other))

	n.SetEntityID(0, false)
	assert.False(t, SameIdentity(n, other))
}

func TestParseKind(t *testing.T) {
	for k := KindText; k <= KindCollection; k++ {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("blob")
	assert.Error(t, err)
	assert.False(t, KindInvalid.Valid())
}
