// Package apperror defines the error classes every domain error belongs to.
//
// Domain packages declare their own sentinels with New and callers classify them with
// errors.Is against one of the class values below.
package apperror

import "errors"

var (
	// ErrValidation marks bad input shape. Never retried.
	ErrValidation = errors.New("validation_error")
	// ErrNotFound marks a missing route, calculation or parameter.
	ErrNotFound = errors.New("not_found")
	// ErrConflict marks a failed status precondition or a forbidden identity combination.
	ErrConflict = errors.New("conflict")
	// ErrConfiguration marks upstream data integrity problems such as inactive catalog references.
	ErrConfiguration = errors.New("configuration_error")
	// ErrUnauthorized marks a missing or unknown caller identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks a caller lacking the permission for an action.
	ErrForbidden = errors.New("forbidden")
)

// Error is a coded error that unwraps to its class.
type Error struct {
	Class error
	Code  string
}

func (e *Error) Error() string { return e.Code }

func (e *Error) Unwrap() error { return e.Class }

// New returns a coded error belonging to class.
func New(class error, code string) error {
	return &Error{Class: class, Code: code}
}

// Class returns the class sentinel of err, or nil when err is unclassified.
func Class(err error) error {
	for _, class := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrConfiguration, ErrUnauthorized, ErrForbidden} {
		if errors.Is(err, class) {
			return class
		}
	}
	return nil
}

// Code returns the snake_case code carried by err, falling back to its message.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	var withCode interface{ ErrorCode() string }
	if errors.As(err, &withCode) {
		return withCode.ErrorCode()
	}
	return err.Error()
}
