package store

import (
	"context"
	"fmt"
	"time"

	"github.com/micromata/projectforge-sub013/internal/history"
)

// timeLayout is the stored form of entry timestamps.
const timeLayout = time.RFC3339Nano

// WriteEntries stores entries and their attributes in one transaction and
// returns how many entries were new.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency - an entry already stored
// is skipped together with its attributes. Other constraint violations roll
// back the whole batch.
func (s *Store) WriteEntries(ctx context.Context, entries []history.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write entries: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history_entries
		(id, entity_type, entity_id, operation, actor, modified_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("write entries: prepare: %w", err)
	}
	defer entryStmt.Close()

	attrStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history_attributes
		(entry_id, position, property, value_type, operation, old_value, new_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("write entries: prepare: %w", err)
	}
	defer attrStmt.Close()

	written := 0
	for _, e := range entries {
		if e.ID == "" {
			return 0, fmt.Errorf("write entries: %s %d: entry id is empty", e.EntityType, e.EntityID)
		}
		result, err := entryStmt.ExecContext(ctx,
			e.ID,
			e.EntityType,
			int64(e.EntityID),
			e.Operation.String(),
			e.Actor,
			e.Timestamp.UTC().Format(timeLayout),
		)
		if err != nil {
			return 0, fmt.Errorf("write entry %s: %w", e.ID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("write entry %s: rows affected: %w", e.ID, err)
		}
		if n == 0 {
			continue
		}
		written++

		for i, a := range e.Attributes {
			if _, err := attrStmt.ExecContext(ctx,
				e.ID,
				i,
				a.Property,
				a.ValueType,
				a.Operation.String(),
				a.OldValue,
				a.NewValue,
			); err != nil {
				return 0, fmt.Errorf("write entry %s attribute %s: %w", e.ID, a.Property, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write entries: commit: %w", err)
	}
	return written, nil
}
