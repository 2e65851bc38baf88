package history

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// Render writes entries as plain text, one header line per entry followed by
// its attributes indented by two spaces. Timestamps are rendered in UTC.
//
//	[h-0001] update Project#1 by alice at 2024-01-15T09:30:00Z
//	  title (text, update): "Apollo" -> "Apollo v2"
func Render(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "[%s] %s %s#%d by %s at %s\n",
			e.ID, e.Operation, e.EntityType, e.EntityID, e.Actor,
			e.Timestamp.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
		for _, a := range e.Attributes {
			if _, err := fmt.Fprintf(w, "  %s (%s, %s): %s -> %s\n",
				a.Property, a.ValueType, a.Operation, quote(a.OldValue), quote(a.NewValue)); err != nil {
				return err
			}
		}
	}
	return nil
}

func quote(s *string) string {
	if s == nil {
		return "null"
	}
	return strconv.Quote(*s)
}
