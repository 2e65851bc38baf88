package history

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	old, updated := "Apollo", "Apollo v2"
	entries := []Entry{
		{
			ID:         "h-0001",
			EntityType: "Project",
			EntityID:   1,
			Operation:  OpUpdate,
			Actor:      "alice",
			Timestamp:  time.Date(2024, time.January, 15, 10, 30, 0, 0, time.FixedZone("CET", 3600)),
			Attributes: []Attribute{
				{Property: "title", ValueType: "text", Operation: OpUpdate, OldValue: &old, NewValue: &updated},
				{Property: "note", ValueType: "text", Operation: OpUpdate, OldValue: &old},
			},
		},
		{ID: "h-0002", EntityType: "Position", EntityID: 6, Operation: OpDelete, Actor: "alice", Timestamp: time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, entries))
	assert.Equal(t, `[h-0001] update Project#1 by alice at 2024-01-15T09:30:00Z
  title (text, update): "Apollo" -> "Apollo v2"
  note (text, update): "Apollo" -> null
[h-0002] delete Position#6 by alice at 2024-01-15T09:30:00Z
`, buf.String())
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestEntryJSON(t *testing.T) {
	v := "7"
	data, err := json.Marshal(Entry{
		ID:         "h-0001",
		EntityType: "Project",
		EntityID:   1,
		Operation:  OpInsert,
		Actor:      "alice",
		Timestamp:  time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC),
		Attributes: []Attribute{{Property: "manager", ValueType: "reference", Operation: OpInsert, NewValue: &v}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "h-0001", "entityType": "Project", "entityId": 1, "operation": "insert",
		"actor": "alice", "timestamp": "2024-01-15T09:30:00Z",
		"attributes": [{"property": "manager", "valueType": "reference", "operation": "insert", "oldValue": null, "newValue": "7"}]
	}`, string(data))

	var back Entry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, OpInsert, back.Operation)
	assert.Equal(t, OpInsert, back.Attributes[0].Operation)
}
