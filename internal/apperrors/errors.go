package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can distinguish business-rule
// rejections from infrastructure failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNotFound
	KindInvalidState
	KindValidation
	KindPartialFailure
	KindStore
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized: caller is not a contract party / not an admin. The message
// must never leak whether the target resource exists.
func Unauthorized(format string, args ...any) *Error {
	return newf(KindUnauthorized, format, args...)
}

// NotFound: contract/milestone/action id does not resolve.
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// InvalidState: operation attempted outside its required precondition status.
func InvalidState(format string, args ...any) *Error {
	return newf(KindInvalidState, format, args...)
}

// Validation: missing or malformed mandatory input.
func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

// PartialFailure: the primary change landed but a secondary effect did not.
func PartialFailure(err error, format string, args ...any) *Error {
	e := newf(KindPartialFailure, format, args...)
	e.Err = err
	return e
}

// Store wraps a transient store failure so it stays distinguishable from a
// business-rule rejection.
func Store(err error, format string, args ...any) *Error {
	e := newf(KindStore, format, args...)
	e.Err = err
	return e
}

// KindOf extracts the kind from an error chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
