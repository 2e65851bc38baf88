package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromata/projectforge-sub013/internal/model"
)

func TestRegistry_Valid(t *testing.T) {
	reg := Registry()
	assert.Equal(t, []string{"Attachment", "Employee", "Position", "Project", "SubProject"}, reg.Names())

	sub, ok := reg.Lookup("SubProject")
	require.True(t, ok)
	title, ok := sub.Property("title")
	require.True(t, ok)

	manager, ok := sub.Property("manager")
	require.True(t, ok)
	assert.Equal(t, "Employee", manager.Target)

	sp := &SubProject{Project: Project{Title: "inherited"}}
	assert.Equal(t, model.Text("inherited"), title.Get(sp))
	require.NoError(t, title.Set(sp, model.Text("changed")))
	assert.Equal(t, "changed", sp.Title)
}

func TestPositions_NewCollection(t *testing.T) {
	reg := Registry()
	typ, _ := reg.Lookup("Project")
	positions, _ := typ.Property("positions")

	p := &Project{NoPositions: true}
	assert.Nil(t, positions.Collection(p))

	c, err := positions.NewCollection(p)
	require.NoError(t, err)
	require.NoError(t, c.Add(NewPosition(1, 1, "a")))
	assert.Len(t, p.Positions, 1)
	assert.NotNil(t, positions.Collection(p))
}
