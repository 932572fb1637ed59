// Package apperror defines the typed errors shared by the repository, service
// and handler layers.
//
// Every domain failure is an *AppError wrapping exactly one sentinel below.
// Callers branch with errors.Is, which walks through any fmt.Errorf("%w")
// wrapping added on the way up:
//
//	if errors.Is(err, apperror.ErrForbidden) { ... }
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateTitle     = errors.New("duplicate title")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets the two uniqueness sentinels also match ErrConflict, so callers
// that only care about "some uniqueness violation" can test for that.
func (e *AppError) Is(target error) bool {
	if target != ErrConflict {
		return false
	}
	return e.Err == ErrDuplicateTitle || e.Err == ErrAlreadyRegistered
}

func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %v", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// DuplicateTitle reports that another post already uses title.
func DuplicateTitle(title string) *AppError {
	return &AppError{
		Err:     ErrDuplicateTitle,
		Message: fmt.Sprintf("a post titled %q already exists", title),
		Field:   "title",
	}
}

// AlreadyRegistered reports that an account with the submitted email exists.
func AlreadyRegistered() *AppError {
	return &AppError{
		Err:     ErrAlreadyRegistered,
		Message: "You have already registered. Just log in.",
		Field:   "email",
	}
}

// InvalidCredentials is returned for both unknown emails and wrong passwords.
// field records which check failed for logging; the message is the same.
func InvalidCredentials(field string) *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "Invalid email or password. Please try again.",
		Field:   field,
	}
}
