package history

import "github.com/google/uuid"

// IDGenerator produces entry identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 entry ids.
//
// UUIDv7 embeds a millisecond timestamp in the most significant bits, so
// entries sort by creation time in storage.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it in hyphenated form.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
