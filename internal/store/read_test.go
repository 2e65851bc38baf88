package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/testutil"
)

func TestReadEntityHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Later timestamp written first: order follows insertion, not time.
	_, err := s.WriteEntries(ctx, []history.Entry{
		createTestEntry("h-0002", "Project", 1, history.OpUpdate, 60,
			textChange("title", str("Apollo"), str("Apollo v2")),
			textChange("note", nil, str("first note")),
		),
		createTestEntry("h-0001", "Project", 1, history.OpUpdate, 0,
			textChange("title", str("Apollo v2"), str("Apollo v3")),
		),
		createTestEntry("h-0003", "Project", 2, history.OpInsert, 0),
	})
	require.NoError(t, err)

	got, err := s.ReadEntityHistory(ctx, "Project", 1)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "h-0002", first.ID)
	assert.Equal(t, "alice", first.Actor)
	assert.Equal(t, history.OpUpdate, first.Operation)
	assert.True(t, first.Timestamp.Equal(testutil.DefaultEpoch.Add(60e9)))
	require.Len(t, first.Attributes, 2)
	assert.Equal(t, "title", first.Attributes[0].Property)
	assert.Equal(t, "text", first.Attributes[0].ValueType)
	assert.Equal(t, history.OpUpdate, first.Attributes[0].Operation)
	assert.Equal(t, "Apollo", *first.Attributes[0].OldValue)
	assert.Nil(t, first.Attributes[1].OldValue)
	assert.Equal(t, "first note", *first.Attributes[1].NewValue)

	assert.Equal(t, "h-0001", got[1].ID)
}

func TestReadEntityHistory_EntryWithoutAttributes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WriteEntries(ctx, []history.Entry{createTestEntry("h-0001", "Position", 8, history.OpDelete, 0)})
	require.NoError(t, err)

	got, err := s.ReadEntityHistory(ctx, "Position", 8)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, history.OpDelete, got[0].Operation)
	assert.NotNil(t, got[0].Attributes)
	assert.Empty(t, got[0].Attributes)
}

func TestReadEntityHistory_Empty(t *testing.T) {
	s := createTestStore(t)
	got, err := s.ReadEntityHistory(context.Background(), "Project", 99)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadByActor(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	bob := createTestEntry("h-0002", "Project", 2, history.OpUpdate, 0)
	bob.Actor = "bob"
	_, err := s.WriteEntries(ctx, []history.Entry{
		createTestEntry("h-0001", "Project", 1, history.OpUpdate, 0),
		bob,
		createTestEntry("h-0003", "Position", 5, history.OpInsert, 0),
	})
	require.NoError(t, err)

	got, err := s.ReadByActor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "h-0001", got[0].ID)
	assert.Equal(t, "h-0003", got[1].ID)
}
