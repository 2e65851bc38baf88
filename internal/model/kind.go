package model

import "fmt"

// Kind tags the value kind of a property. The copy engine dispatches on it
// with an exhaustive switch.
type Kind int

const (
	KindInvalid Kind = iota
	KindText
	KindInt
	KindFloat
	KindBool
	KindDecimal
	KindDate
	KindDateTime
	KindReference
	KindCollection
)

var kindNames = map[Kind]string{
	KindText:       "text",
	KindInt:        "int",
	KindFloat:      "float",
	KindBool:       "bool",
	KindDecimal:    "decimal",
	KindDate:       "date",
	KindDateTime:   "datetime",
	KindReference:  "reference",
	KindCollection: "collection",
}

// String returns the lowercase kind name used in schemas and history rows.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("invalid(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Scalar reports whether values of this kind are compared by plain equality.
func (k Kind) Scalar() bool {
	switch k {
	case KindText, KindInt, KindFloat, KindBool:
		return true
	default:
		return false
	}
}

// ParseKind converts a schema kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown kind %q", s)
}
