package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/store"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

// seededStore returns an in-memory store holding the insert and later soft
// delete of Position#7 plus an update of Project#1.
func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ts := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	entries := []history.Entry{
		{
			ID: "h-0001", EntityType: "Position", EntityID: 7, Operation: history.OpInsert,
			Actor: "alice", Timestamp: ts,
			Attributes: []history.Attribute{
				{Property: "number", ValueType: "int", Operation: history.OpInsert, NewValue: strPtr("3")},
				{Property: "text", ValueType: "text", Operation: history.OpInsert, NewValue: strPtr("Testing")},
			},
		},
		{
			ID: "h-0002", EntityType: "Project", EntityID: 1, Operation: history.OpUpdate,
			Actor: "alice", Timestamp: ts,
			Attributes: []history.Attribute{
				{Property: "title", ValueType: "text", Operation: history.OpUpdate, OldValue: strPtr("Apollo"), NewValue: strPtr("Apollo v2")},
			},
		},
		{
			ID: "h-0003", EntityType: "Position", EntityID: 7, Operation: history.OpUpdate,
			Actor: "bob", Timestamp: ts.Add(time.Second),
			Attributes: []history.Attribute{
				{Property: "deleted", ValueType: "bool", Operation: history.OpUpdate, OldValue: strPtr("false"), NewValue: strPtr("true")},
			},
		},
	}
	_, err = st.WriteEntries(context.Background(), entries)
	require.NoError(t, err)
	return st
}

func evaluate(t *testing.T, st *store.Store, assertions ...Assertion) []string {
	t.Helper()
	return EvaluateAssertions(assertions, &AssertionContext{Store: st, Ctx: context.Background()})
}

func TestAssertHistoryContains(t *testing.T) {
	st := seededStore(t)

	tests := []struct {
		name      string
		assertion Assertion
		pass      bool
	}{
		{
			name:      "entity only",
			assertion: Assertion{Type: AssertHistoryContains, Entity: "Position#7"},
			pass:      true,
		},
		{
			name:      "operation",
			assertion: Assertion{Type: AssertHistoryContains, Entity: "Position#7", Operation: "insert"},
			pass:      true,
		},
		{
			name:      "operation absent",
			assertion: Assertion{Type: AssertHistoryContains, Entity: "Project#1", Operation: "delete"},
		},
		{
			name:      "null old value",
			assertion: Assertion{Type: AssertHistoryContains, Entity: "Position#7", Property: "number", OldNull: true, New: strPtr("3")},
			pass:      true,
		},
		{
			name:      "old value required but null",
			assertion: Assertion{Type: AssertHistoryContains, Entity: "Position#7", Property: "number", Old: strPtr("3")},
		},
		{
			name:      "property without values",
			assertion: Assertion{Type: AssertHistoryContains, Entity: "Project#1", Property: "title"},
			pass:      true,
		},
		{
			name:      "wrong new value",
			assertion: Assertion{Type: AssertHistoryContains, Entity: "Project#1", Property: "title", New: strPtr("Apollo v3")},
		},
		{
			name:      "unknown entity",
			assertion: Assertion{Type: AssertHistoryContains, Entity: "Position#99"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := evaluate(t, st, tt.assertion)
			if tt.pass {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Contains(t, errs[0], "Assertion failed: history_contains")
			}
		})
	}
}

func TestAssertHistoryContains_FailureShowsHistory(t *testing.T) {
	st := seededStore(t)

	errs := evaluate(t, st, Assertion{
		Type:     AssertHistoryContains,
		Entity:   "Project#1",
		Property: "title",
		Old:      strPtr("Gemini"),
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `Expected: Project#1 with title from "Gemini"`)
	assert.Contains(t, errs[0], "Stored history:")
	assert.Contains(t, errs[0], `title (text, update): "Apollo" -> "Apollo v2"`)
}

func TestAssertHistoryCount(t *testing.T) {
	st := seededStore(t)

	assert.Empty(t, evaluate(t, st, Assertion{Type: AssertHistoryCount, Count: 3}))
	assert.Empty(t, evaluate(t, st, Assertion{Type: AssertHistoryCount, Entity: "Position#7", Count: 2}))
	assert.Empty(t, evaluate(t, st, Assertion{Type: AssertHistoryCount, Entity: "Position#8", Count: 0}))

	errs := evaluate(t, st, Assertion{Type: AssertHistoryCount, Entity: "Project#1", Count: 2})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Expected: 2 entries for Project#1")
	assert.Contains(t, errs[0], "Actual: 1 entries")
}

func TestAssertFinalState(t *testing.T) {
	st := seededStore(t)

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{
			name: "values and flags",
			assertion: Assertion{
				Type:    AssertFinalState,
				Entity:  "Position#7",
				Values:  map[string]string{"number": "3", "text": "Testing", "deleted": "true"},
				Created: boolPtr(true),
				Deleted: boolPtr(true),
			},
		},
		{
			name:      "value mismatch",
			assertion: Assertion{Type: AssertFinalState, Entity: "Position#7", Values: map[string]string{"text": "Build"}},
			wantErr:   `Actual: "Testing"`,
		},
		{
			name:      "never recorded",
			assertion: Assertion{Type: AssertFinalState, Entity: "Position#7", Values: map[string]string{"amount": "1"}},
			wantErr:   "never recorded",
		},
		{
			name:      "created mismatch",
			assertion: Assertion{Type: AssertFinalState, Entity: "Project#1", Created: boolPtr(true)},
			wantErr:   "Project#1 created = true",
		},
		{
			name:      "deleted mismatch",
			assertion: Assertion{Type: AssertFinalState, Entity: "Position#7", Deleted: boolPtr(false)},
			wantErr:   "Position#7 deleted = false",
		},
		{
			name:      "no history",
			assertion: Assertion{Type: AssertFinalState, Entity: "Position#8", Deleted: boolPtr(false)},
			wantErr:   "no entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := evaluate(t, st, tt.assertion)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	st := seededStore(t)

	errs := evaluate(t, st,
		Assertion{Type: AssertHistoryCount, Count: 3},
		Assertion{Type: AssertHistoryCount, Count: 4},
		Assertion{Type: AssertHistoryContains, Entity: "Project#1"},
	)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Expected: 4 entries for all entities")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	st := seededStore(t)

	errs := evaluate(t, st, Assertion{Type: "trace_order"})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "trace_order"`)
}

func TestEvaluateAssertions_WithoutStore(t *testing.T) {
	errs := EvaluateAssertions([]Assertion{{Type: AssertHistoryCount}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a history store")
}

func TestParseEntity(t *testing.T) {
	typ, id, err := parseEntity("Position#7")
	require.NoError(t, err)
	assert.Equal(t, "Position", typ)
	assert.EqualValues(t, 7, id)

	for _, bad := range []string{"Position", "#7", "Position#x"} {
		_, _, err := parseEntity(bad)
		assert.Error(t, err, bad)
	}
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertHistoryCount,
		Expected: "2 entries for all entities",
		Actual:   "1 entries",
	}
	assert.Equal(t,
		"Assertion failed: history_count\n  Expected: 2 entries for all entities\n  Actual: 1 entries\n",
		err.Error())
}
