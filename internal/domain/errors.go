package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies request-level failures. Adapter and geocoding
// failures never surface here; they degrade into fragment status instead.
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION_ERROR"
	KindLLMBlocked    ErrorKind = "LLM_BLOCKED"
	KindLLMEmpty      ErrorKind = "LLM_EMPTY"
	KindLLMTransport  ErrorKind = "LLM_UPSTREAM_ERROR"
	KindConfiguration ErrorKind = "CONFIGURATION_ERROR"
	KindInternal      ErrorKind = "INTERNAL_ERROR"
)

// Error carries an ErrorKind plus a human-readable message. Every failed
// request maps to exactly one kind.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a classified error without a cause.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a classified error wrapping a cause.
func WrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the ErrorKind from err, defaulting to KindInternal.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
