package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/model"
	"github.com/micromata/projectforge-sub013/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func str(s string) *string {
	return &s
}

// createTestEntry creates an entry stamped at the default epoch plus offset
// seconds.
func createTestEntry(id, entityType string, entityID int64, op history.Op, offset int, attrs ...history.Attribute) history.Entry {
	return history.Entry{
		ID:         id,
		EntityType: entityType,
		EntityID:   model.ID(entityID),
		Operation:  op,
		Actor:      "alice",
		Timestamp:  testutil.DefaultEpoch.Add(time.Duration(offset) * time.Second),
		Attributes: attrs,
	}
}

func textChange(property string, oldValue, newValue *string) history.Attribute {
	return history.Attribute{
		Property:  property,
		ValueType: "text",
		Operation: history.OpUpdate,
		OldValue:  oldValue,
		NewValue:  newValue,
	}
}
