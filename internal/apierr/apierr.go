// Package apierr defines the tagged error type shared by the generation pipeline.
// Every failure is constructed once where it happens and carries a Kind, so callers
// map errors to statuses and user messages with a single switch.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind discriminates pipeline failures
type Kind string

const (
	KindValidation         Kind = "validation"
	KindCompletion         Kind = "completion"
	KindEmptyResponse      Kind = "empty_response"
	KindEmptyContent       Kind = "empty_content"
	KindUnparsableContent  Kind = "unparsable_content"
	KindNoSalvageableItems Kind = "no_salvageable_items"
	KindInternal           Kind = "internal"
)

// Error is a pipeline failure
type Error struct {
	Kind    Kind
	Message string // Short, user-safe description
	Detail  string // Raw cause or snippet; logged, only shown in development
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status for the error kind
func (e *Error) Status() int {
	return StatusFor(e.Kind)
}

// WithDetail attaches a raw detail
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// StatusFor maps a kind to its HTTP status
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindCompletion, KindEmptyResponse, KindEmptyContent,
		KindUnparsableContent, KindNoSalvageableItems, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from err, wrapping unknown errors as KindInternal
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindInternal, "internal error")
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
