// Package errs defines the stable error kinds used across the core loop
// (spec §7) as a typed, wrappable error instead of ad hoc sentinel values or
// exception-style control flow.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a stable error identifier surfaced to CLI exit codes and callers.
type Kind string

const (
	InvalidArgument            Kind = "INVALID_ARGUMENT"
	NotBootstrapped            Kind = "NOT_BOOTSTRAPPED"
	InsufficientEmbeddingCover Kind = "INSUFFICIENT_EMBEDDING_COVERAGE"
	Timeout                    Kind = "TIMEOUT"
	ProviderNotReady           Kind = "PROVIDER_NOT_READY"
	StorageLocked              Kind = "STORAGE_LOCKED"
	SchemaIncompatible         Kind = "SCHEMA_INCOMPATIBLE"
	ParseError                 Kind = "PARSE_ERROR"
	IndexDrift                 Kind = "INDEX_DRIFT"
	StorageWriteDegraded       Kind = "STORAGE_WRITE_DEGRADED"
	SynthesisFailed            Kind = "SYNTHESIS_FAILED"
)

// Error is a typed error carrying a stable Kind plus a human message and
// optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error with no cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error with kind, wrapping cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error. Returns "" if no typed kind is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err's kind equals k.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}
