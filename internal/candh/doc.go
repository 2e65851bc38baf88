// Package candh implements the copy-and-history engine.
//
// The engine synchronizes a source entity into a persisted destination
// entity. One pass updates the destination in place, classifies the change
// as NONE, MINOR or MAJOR and queues pending history entries in a
// history.Recorder.
//
// Architecture:
//   - Engine: immutable configuration (registry, location, logger,
//     observer); safe to share across goroutines
//   - ChangeContext: per-pass status and recorder
//   - dispatch: exhaustive switch over model.Kind, one handler per kind
//   - reconcile: owned collection partitioning with soft delete and
//     reactivation; kept members are copied recursively
//
// Property order per entity: the destination type's lineage, most-derived
// first, persisted properties before transient ones. The identity is copied
// before any other property and is never subject to the ignore list.
//
// Recovered conditions (logged at error level, reported to the Observer and
// treated as unchanged):
//   - a property whose kind has no handler
//   - a source reference whose target has no identity
//   - an absent destination collection that cannot be instantiated
//
// Fatal conditions return *CopyError: mismatched types (TYPE_MISMATCH) and
// accessor failures or panics (INTERNAL). A fatal error may leave a prefix
// of properties already copied.
package candh
