// Package history records audit entries for a copy pass.
//
// Recording is a two-phase protocol. During the copy pass the engine queues
// PendingEntry values holding raw model.Values and an ownership path back to
// the root entity. After the caller's persistence layer has assigned
// identities, Recorder.Finalize resolves every pending entry against the
// persisted graph, serializes values to strings and returns immutable Entry
// values ready for storage.
//
// Finalize also synthesizes Insert entries for collection members that are
// new in the persisted graph, since those members had no identity while the
// copy pass ran.
//
// Value serialization:
//
//	text      NFC-normalized string
//	int       base 10
//	float     shortest 'g' representation
//	bool      "true" / "false"
//	decimal   plain decimal notation, scale preserved
//	date      2006-01-02 in the recorder location
//	datetime  RFC 3339 in UTC
//	reference identity of the referenced entity
//	members   ascending comma-separated identities
package history
