package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/model"
)

const selectEntries = `
	SELECT e.id, e.entity_type, e.entity_id, e.operation, e.actor, e.modified_at,
	       a.property, a.value_type, a.operation, a.old_value, a.new_value
	FROM history_entries e
	LEFT JOIN history_attributes a ON a.entry_id = e.id
`

// ReadEntityHistory returns the stored entries of one entity.
// Results are ordered deterministically: ORDER BY seq ASC, position ASC.
//
// Returns an empty slice (not nil) if the entity has no history.
func (s *Store) ReadEntityHistory(ctx context.Context, entityType string, id model.ID) ([]history.Entry, error) {
	return s.readEntries(ctx, selectEntries+`
		WHERE e.entity_type = ? AND e.entity_id = ?
		ORDER BY e.seq ASC, a.position ASC
	`, entityType, int64(id))
}

// ReadByActor returns every stored entry attributed to actor, in insertion
// order.
func (s *Store) ReadByActor(ctx context.Context, actor string) ([]history.Entry, error) {
	return s.readEntries(ctx, selectEntries+`
		WHERE e.actor = ?
		ORDER BY e.seq ASC, a.position ASC
	`, actor)
}

// CountEntries returns the number of stored entries.
func (s *Store) CountEntries(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (s *Store) readEntries(ctx context.Context, query string, args ...any) ([]history.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []history.Entry{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			e                   history.Entry
			entityID            int64
			op, modifiedAt      string
			property, valueType sql.NullString
			attrOp              sql.NullString
			oldValue, newValue  sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.EntityType, &entityID, &op, &e.Actor, &modifiedAt,
			&property, &valueType, &attrOp, &oldValue, &newValue,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		i, seen := index[e.ID]
		if !seen {
			e.EntityID = model.ID(entityID)
			if e.Operation, err = history.ParseOp(op); err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.ID, err)
			}
			if e.Timestamp, err = time.Parse(timeLayout, modifiedAt); err != nil {
				return nil, fmt.Errorf("entry %s: parse timestamp: %w", e.ID, err)
			}
			e.Attributes = []history.Attribute{}
			entries = append(entries, e)
			i = len(entries) - 1
			index[e.ID] = i
		}
		if !property.Valid {
			continue
		}

		a := history.Attribute{
			Property:  property.String,
			ValueType: valueType.String,
			OldValue:  nullable(oldValue),
			NewValue:  nullable(newValue),
		}
		if a.Operation, err = history.ParseOp(attrOp.String); err != nil {
			return nil, fmt.Errorf("entry %s attribute %s: %w", e.ID, a.Property, err)
		}
		entries[i].Attributes = append(entries[i].Attributes, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
