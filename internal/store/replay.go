package store

import (
	"context"
	"fmt"

	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/model"
)

// EntityState is the latest recorded value of every property of one
// entity, reconstructed by replaying its history in order.
type EntityState struct {
	EntityType string   `json:"entityType"`
	EntityID   model.ID `json:"entityId"`

	// Values maps property name to its last recorded new value. A nil
	// value means the property was last cleared.
	Values map[string]*string `json:"values"`

	Entries int    `json:"entries"`
	Created bool   `json:"created"` // an insert entry was recorded
	Deleted bool   `json:"deleted"` // the last lifecycle change was a delete or soft delete
	LastBy  string `json:"lastBy,omitempty"`
}

// ReplayEntity folds the stored history of one entity into its latest
// recorded state. Entities without history yield a zero-entry state.
func (s *Store) ReplayEntity(ctx context.Context, entityType string, id model.ID) (EntityState, error) {
	entries, err := s.ReadEntityHistory(ctx, entityType, id)
	if err != nil {
		return EntityState{}, fmt.Errorf("replay %s %d: %w", entityType, id, err)
	}
	return Replay(entityType, id, entries), nil
}

// Replay folds entries, which must be in recorded order, into an
// EntityState.
func Replay(entityType string, id model.ID, entries []history.Entry) EntityState {
	state := EntityState{
		EntityType: entityType,
		EntityID:   id,
		Values:     make(map[string]*string),
	}
	for _, e := range entries {
		state.Entries++
		state.LastBy = e.Actor
		switch e.Operation {
		case history.OpInsert:
			state.Created = true
			state.Deleted = false
		case history.OpDelete:
			state.Deleted = true
		}
		for _, a := range e.Attributes {
			state.Values[a.Property] = a.NewValue
			if a.Property == "deleted" && a.NewValue != nil {
				state.Deleted = *a.NewValue == "true"
			}
		}
	}
	return state
}
