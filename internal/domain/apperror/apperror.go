// Package apperror holds the error kinds shared by every domain service and
// the HTTP layer that reports them.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateValue      = errors.New("duplicate value")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidState        = errors.New("invalid state")
	ErrConflict            = errors.New("conflict")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrInternal            = errors.New("internal error")
)

// Error carries a caller-facing message for one of the kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return Newf(ErrNotFound, format, args...)
}

func Duplicate(format string, args ...any) error {
	return Newf(ErrDuplicateValue, format, args...)
}

func InvalidArgument(format string, args ...any) error {
	return Newf(ErrInvalidArgument, format, args...)
}

func InvalidState(format string, args ...any) error {
	return Newf(ErrInvalidState, format, args...)
}

func Conflict(format string, args ...any) error {
	return Newf(ErrConflict, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return Newf(ErrUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) error {
	return Newf(ErrForbidden, format, args...)
}

func ConcurrencyConflict(format string, args ...any) error {
	return Newf(ErrConcurrencyConflict, format, args...)
}

var kinds = []error{
	ErrNotFound,
	ErrDuplicateValue,
	ErrInvalidArgument,
	ErrInvalidState,
	ErrConflict,
	ErrUnauthorized,
	ErrForbidden,
	ErrConcurrencyConflict,
	ErrInternal,
}

// KindOf returns the kind err belongs to, or ErrInternal when it has none.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}

// MessageOf returns the caller-facing message. Unclassified errors never
// leak their text.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	kind := KindOf(err)
	return kind.Error()
}
