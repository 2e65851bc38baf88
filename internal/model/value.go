package model

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Value is a sealed interface over the property value kinds.
// Only Null, Text, Int, Float, Bool, Decimal, Time, Ref and Members
// implement it.
type Value interface {
	value() // Sealed
}

// Null is the absent value. Accessors return Null rather than a nil Value.
type Null struct{}

func (Null) value() {}

// Text is a string value.
type Text string

func (Text) value() {}

// Int is an integer value.
type Int int64

func (Int) value() {}

// Float is a floating point value.
type Float float64

func (Float) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Decimal wraps an arbitrary-precision decimal. Construct it with
// DecimalOf; the zero Decimal is treated as null.
type Decimal struct {
	d *apd.Decimal
}

func (Decimal) value() {}

// Apd returns the wrapped decimal. It may be nil for the zero Decimal.
func (d Decimal) Apd() *apd.Decimal {
	return d.d
}

// Time is a point in time. Whether it is compared as a calendar date or as
// an instant is decided by the property kind, not by the value.
type Time time.Time

func (Time) value() {}

// Std returns the value as a time.Time.
func (t Time) Std() time.Time {
	return time.Time(t)
}

// Ref references another entity. The referenced entity is compared by
// identity only.
type Ref struct {
	Entity Entity
}

func (Ref) value() {}

// Members is a snapshot of collection membership. It is only produced for
// history attributes of collection properties.
type Members []Entity

func (Members) value() {}

// IsNull reports whether v is absent: a nil Value, Null, a zero Decimal or a
// Ref without an entity.
func IsNull(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return true
	case Decimal:
		return val.d == nil
	case Ref:
		return val.Entity == nil
	default:
		return false
	}
}

// TextOf returns Text for a non-nil pointer and Null otherwise.
func TextOf(s *string) Value {
	if s == nil {
		return Null{}
	}
	return Text(*s)
}

// DecimalOf wraps d, returning Null when d is nil.
func DecimalOf(d *apd.Decimal) Value {
	if d == nil {
		return Null{}
	}
	return Decimal{d: d}
}

// MustDecimal parses s as a decimal and panics on malformed input.
// Intended for tests and static fixtures.
func MustDecimal(s string) Value {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("model: invalid decimal %q: %v", s, err))
	}
	return Decimal{d: d}
}

// TimeOf returns Time for a non-nil pointer and Null otherwise.
func TimeOf(t *time.Time) Value {
	if t == nil {
		return Null{}
	}
	return Time(*t)
}

// RefOf returns a Ref to p, or Null when p is a nil pointer.
func RefOf[P interface {
	*E
	Entity
}, E any](p P) Value {
	if p == nil {
		return Null{}
	}
	return Ref{Entity: p}
}

// AsText converts v to a string pointer. Null yields nil.
func AsText(v Value) (*string, error) {
	switch val := v.(type) {
	case nil, Null:
		return nil, nil
	case Text:
		s := string(val)
		return &s, nil
	default:
		return nil, fmt.Errorf("expected text value, got %T", v)
	}
}

// AsString converts v to a string. Null yields the empty string.
func AsString(v Value) (string, error) {
	s, err := AsText(v)
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

// AsInt converts v to an int64. Null yields zero.
func AsInt(v Value) (int64, error) {
	switch val := v.(type) {
	case nil, Null:
		return 0, nil
	case Int:
		return int64(val), nil
	default:
		return 0, fmt.Errorf("expected int value, got %T", v)
	}
}

// AsBool converts v to a bool. Null yields false.
func AsBool(v Value) (bool, error) {
	switch val := v.(type) {
	case nil, Null:
		return false, nil
	case Bool:
		return bool(val), nil
	default:
		return false, fmt.Errorf("expected bool value, got %T", v)
	}
}

// AsDecimal converts v to a decimal pointer. Null yields nil.
func AsDecimal(v Value) (*apd.Decimal, error) {
	switch val := v.(type) {
	case nil, Null:
		return nil, nil
	case Decimal:
		return val.d, nil
	default:
		return nil, fmt.Errorf("expected decimal value, got %T", v)
	}
}

// AsTime converts v to a time pointer. Null yields nil.
func AsTime(v Value) (*time.Time, error) {
	switch val := v.(type) {
	case nil, Null:
		return nil, nil
	case Time:
		t := time.Time(val)
		return &t, nil
	default:
		return nil, fmt.Errorf("expected time value, got %T", v)
	}
}

// AsRef converts v to the concrete entity pointer P. Null yields nil.
func AsRef[P interface {
	*E
	Entity
}, E any](v Value) (P, error) {
	switch val := v.(type) {
	case nil, Null:
		return nil, nil
	case Ref:
		if val.Entity == nil {
			return nil, nil
		}
		p, ok := val.Entity.(P)
		if !ok {
			return nil, fmt.Errorf("expected reference to %T, got %T", *new(P), val.Entity)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("expected reference value, got %T", v)
	}
}
