// Package schema compiles entity relationship metadata declared in CUE.
//
// A schema directory holds one or more .cue files declaring entity types:
//
//	entity: Project: {
//		historizable: true
//		properties: {
//			title:     {kind: "text"}
//			manager:   {kind: "reference", target: "Employee"}
//			positions: {kind: "collection", target: "Position", mappedBy: "project", softDelete: true, cascade: true}
//		}
//	}
//
// A collection is owned by the declaring side when it names mappedBy or
// joinColumn and is not historyExempt. Compiled TypeSpecs are checked by
// Validate, which reports every problem it finds with a stable code.
package schema
