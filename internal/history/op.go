package history

import "fmt"

// Op is the operation kind of an entry or attribute.
type Op int

const (
	OpUndefined Op = iota
	OpInsert
	OpUpdate
	OpDelete
)

// String returns the lowercase operation name stored in history rows.
func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "undefined"
	}
}

// ParseOp converts an operation name to an Op. The empty string parses as
// OpUndefined.
func ParseOp(s string) (Op, error) {
	switch s {
	case "", "undefined":
		return OpUndefined, nil
	case "insert":
		return OpInsert, nil
	case "update":
		return OpUpdate, nil
	case "delete":
		return OpDelete, nil
	default:
		return OpUndefined, fmt.Errorf("unknown history operation %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Op) UnmarshalText(text []byte) error {
	op, err := ParseOp(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
