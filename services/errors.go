package services

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable failure tag surfaced to callers.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindPreconditionFailed ErrorKind = "failed_precondition"
	KindInvalidArgument    ErrorKind = "invalid_argument"
	KindUnauthenticated    ErrorKind = "unauthenticated"
	KindTransientFailure   ErrorKind = "transient_failure"
	KindInternal           ErrorKind = "internal"
)

// AppError carries a kind plus a human-readable message. Handlers map the
// kind to an HTTP status; the message is safe to show to the caller.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Errf builds a tagged error.
func Errf(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error without losing it.
func Wrap(kind ErrorKind, err error, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from any error. Untagged errors are internal.
func KindOf(err error) ErrorKind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// MessageOf extracts the caller-facing message from any error.
func MessageOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "unexpected internal error"
}
