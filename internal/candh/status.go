package candh

import (
	"fmt"

	"github.com/micromata/projectforge-sub013/internal/history"
)

// ChangeStatus classifies the severity of a copy pass.
type ChangeStatus int

const (
	// StatusNone means no property changed.
	StatusNone ChangeStatus = iota
	// StatusMinor means only properties excluded from history changed.
	StatusMinor
	// StatusMajor means at least one historized property changed.
	StatusMajor
)

// String returns the uppercase status name.
func (s ChangeStatus) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusMinor:
		return "MINOR"
	case StatusMajor:
		return "MAJOR"
	default:
		return fmt.Sprintf("ChangeStatus(%d)", int(s))
	}
}

// ParseStatus converts a status name to a ChangeStatus.
func ParseStatus(s string) (ChangeStatus, error) {
	switch s {
	case "NONE", "none":
		return StatusNone, nil
	case "MINOR", "minor":
		return StatusMinor, nil
	case "MAJOR", "major":
		return StatusMajor, nil
	default:
		return StatusNone, fmt.Errorf("unknown change status %q", s)
	}
}

// Combine returns the more severe of the two statuses.
func Combine(current, incoming ChangeStatus) ChangeStatus {
	if incoming > current {
		return incoming
	}
	return current
}

// ChangeContext carries the state of one copy pass.
type ChangeContext struct {
	status ChangeStatus

	// Recorder holds the pending history of the pass. It is nil when the
	// pass was run without history.
	Recorder *history.Recorder
}

// Raise combines s into the running status. The status never decreases.
func (c *ChangeContext) Raise(s ChangeStatus) {
	c.status = Combine(c.status, s)
}

// Status returns the most severe status raised so far.
func (c *ChangeContext) Status() ChangeStatus {
	return c.status
}
