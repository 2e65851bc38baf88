// Package model defines the entity, value and descriptor types that the
// copy engine operates on.
//
// This package contains type definitions and descriptor validation only.
// All other internal packages import model; model imports nothing internal.
//
// Key design constraints:
//   - Entity properties are described by explicit descriptor tables (Type,
//     Property) with accessor closures. No reflection is used to walk entities.
//   - Property values travel as the sealed Value union so every kind is
//     handled by an exhaustive switch.
//   - Identity is optional: an entity that has not been persisted yet reports
//     no ID.
//   - A Registry is immutable once built and may be shared between goroutines.
package model
