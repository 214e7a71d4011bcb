package service

import (
	"errors"
	"fmt"

	"lexiq-backend/internal/repository"
)

// Code is a stable, caller-visible failure reason.
type Code string

const (
	CodeValidation   Code = "validation"
	CodeNotFound     Code = "not_found"
	CodeNoAnswers    Code = "no_answers"
	CodeLevelNotSet  Code = "level_not_set"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeInternal     Code = "internal"
)

// Error is the typed failure every service returns.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func validationError(format string, args ...interface{}) *Error {
	return newError(CodeValidation, nil, format, args...)
}

func internalError(err error, message string) *Error {
	return newError(CodeInternal, err, "%s", message)
}

// lookupError maps repository.ErrNotFound to a not_found error and
// everything else to internal.
func lookupError(err error, what string) *Error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(CodeNotFound, err, "%s not found", what)
	}
	return internalError(err, "failed to load "+what)
}

// ErrorCode extracts the code of a service error, or internal.
func ErrorCode(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	return err != nil && ErrorCode(err) == code
}
