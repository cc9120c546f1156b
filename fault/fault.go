// Package fault defines the structured failure type shared by every
// component entry point.
package fault

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind/Code rather than matching error strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindIdentity: a supplied identifier does not match the looked-up record.
	KindIdentity Kind = "Identity"
	// KindState: the record's current status does not admit the operation.
	KindState Kind = "State"
	// KindBound: a numeric field is outside its declared valid range.
	KindBound Kind = "Bound"
	// KindCapacity: a bounded collection is full.
	KindCapacity Kind = "Capacity"
	// KindTemporal: a clock-based precondition is not met.
	KindTemporal Kind = "Temporal"
	// KindCapability: an injected external capability reported failure.
	KindCapability Kind = "Capability"
	// KindInternal: invariant violation inside the suite itself.
	KindInternal Kind = "Internal"
)

// Error is the suite's structured error type.
//
// Code is a stable identifier (e.g., ZX-TX-001, ZX-BATCH-003) that names the
// violated precondition. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns a structured error with no cause.
func New(kind Kind, code, msg string) error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Wrap attaches a cause to a structured error.
func Wrap(kind Kind, code, msg string, cause error) error {
	if cause == nil {
		return New(kind, code, msg)
	}
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Code returns the stable Code for a structured error, or "" if unknown.
func Code(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}
