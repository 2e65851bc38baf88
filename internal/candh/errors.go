package candh

import (
	"errors"
	"fmt"
)

// CopyError is a fatal error that aborted a copy pass.
type CopyError struct {
	// Code identifies the error category.
	Code CopyErrorCode

	// Message is a human-readable description.
	Message string

	// Type is the entity type being copied.
	Type string

	// Property is the property being copied, if any.
	Property string

	// Err is the underlying cause, if any.
	Err error
}

// CopyErrorCode categorizes copy errors.
type CopyErrorCode string

const (
	// ErrCodeTypeMismatch indicates the destination type is not the source
	// type or one of its ancestors.
	ErrCodeTypeMismatch CopyErrorCode = "TYPE_MISMATCH"

	// ErrCodeInternal indicates an accessor or mutator failed. It points to
	// a programming defect in a type descriptor, not to bad data.
	ErrCodeInternal CopyErrorCode = "INTERNAL"
)

// Error implements the error interface.
func (e *CopyError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Property != "" {
		msg = fmt.Sprintf("%s (type=%s, property=%s)", msg, e.Type, e.Property)
	} else if e.Type != "" {
		msg = fmt.Sprintf("%s (type=%s)", msg, e.Type)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CopyError) Unwrap() error {
	return e.Err
}

// IsTypeMismatch returns true if err is a type mismatch copy error.
// Uses errors.As to handle wrapped errors.
func IsTypeMismatch(err error) bool {
	var ce *CopyError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeTypeMismatch
	}
	return false
}

// IsInternal returns true if err is an internal copy error.
// Uses errors.As to handle wrapped errors.
func IsInternal(err error) bool {
	var ce *CopyError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeInternal
	}
	return false
}

func newTypeMismatchError(srcType, dstType string) *CopyError {
	return &CopyError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("cannot copy %s into %s", srcType, dstType),
		Type:    dstType,
	}
}

func newInternalError(typeName, property string, err error) *CopyError {
	return &CopyError{
		Code:     ErrCodeInternal,
		Message:  "property access failed",
		Type:     typeName,
		Property: property,
		Err:      err,
	}
}
