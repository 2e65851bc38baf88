// Package persist provides the in-memory persistence collaborator used by
// the CLI and the scenario harness.
//
// It stands in for a transaction commit: Assigner hands out identities to
// every entity of a graph that has none, walking owned collections the same
// way a cascading ORM save would. ForceLoad gives callers a single place to
// materialize lazily loaded state before a copy pass.
//
// Identities come from a monotonic Sequence seeded past the largest identity
// already present in the graph, so existing rows are never reused.
package persist
