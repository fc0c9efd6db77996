// Package errs classifies failures the engine surfaces to its callers.
//
// Approximation caveats (leap years, DST rule families, linear ayanamsa drift)
// are modeling choices and never appear here.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownLocation = errors.New("unknown location")
	ErrUnavailable     = errors.New("unavailable")
)

// Kind is a coarse-grained categorization for errors.
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindUnknownLocation Kind = "unknown_location"
	KindUnavailable     Kind = "unavailable"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op    string
	Kind  Kind
	Field string // Optional: offending input field
	Err   error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Field != "" {
		base += fmt.Sprintf(" (field=%s)", e.Field)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match an OpError against the sentinel of its kind.
func (e *OpError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindInvalidInput:
		return target == ErrInvalidInput
	case KindUnknownLocation:
		return target == ErrUnknownLocation
	case KindUnavailable:
		return target == ErrUnavailable
	}
	return false
}

// Invalid builds an invalid_input error for a named field.
func Invalid(op, field, format string, args ...any) error {
	return &OpError{Op: op, Kind: KindInvalidInput, Field: field, Err: fmt.Errorf(format, args...)}
}

// Unavailable wraps cause as an unavailable error.
func Unavailable(op string, cause error) error {
	return &OpError{Op: op, Kind: KindUnavailable, Err: cause}
}

// IsKind helps callers classify errors without depending on concrete packages.
func IsKind(err error, kind Kind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}
