// Package harness runs copy scenarios and compares their history against
// golden files.
//
// # Scenario Format
//
// Scenarios are YAML files. Graph documents are embedded as block strings
// in the record format; the schema path is relative to the scenario file.
//
//	name: soft_delete_member
//	description: "Removing a position soft deletes it"
//	schema: ../schema
//	actor: alice
//	dest: |
//	  type: Project
//	  id: 1
//	  positions:
//	    - id: 5
//	      number: 1
//	steps:
//	  - source: |
//	      type: Project
//	      id: 1
//	    expect:
//	      status: MAJOR
//	      entries: 2
//	assertions:
//	  - type: history_contains
//	    entity: Position#5
//	    property: deleted
//	    new: "true"
//	  - type: final_state
//	    entity: Position#5
//	    deleted: true
//
// Each step copies its source onto the destination left behind by the
// previous step, assigns identities, finalizes history and stores it.
//
// # Assertion Types
//
//   - history_contains: an entry (and optionally an attribute) matches
//   - history_count: the number of stored entries, optionally per entity
//   - final_state: the replayed history state of one entity
//
// # Deterministic Testing
//
// Entry ids come from testutil.SequenceGenerator and timestamps from
// testutil.DeterministicClock, shared across steps. History is written to
// an in-memory SQLite database per run, so golden output is byte-identical
// across runs.
package harness
