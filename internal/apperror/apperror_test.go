package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("post", 42),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("admin only"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "DuplicateTitle wraps ErrDuplicateTitle",
			err:       DuplicateTitle("Hello"),
			target:    ErrDuplicateTitle,
			wantMatch: true,
		},
		{
			name:      "DuplicateTitle is also a conflict",
			err:       DuplicateTitle("Hello"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "AlreadyRegistered is also a conflict",
			err:       AlreadyRegistered(),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "AlreadyRegistered does NOT match ErrDuplicateTitle",
			err:       AlreadyRegistered(),
			target:    ErrDuplicateTitle,
			wantMatch: false,
		},
		{
			name:      "InvalidCredentials wraps ErrInvalidCredentials",
			err:       InvalidCredentials("password"),
			target:    ErrInvalidCredentials,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrForbidden",
			err:       NotFound("post", 42),
			target:    ErrForbidden,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrNotFound",
			err:       Forbidden("nope"),
			target:    ErrNotFound,
			wantMatch: false,
		},
		{
			name:      "wrapped with fmt.Errorf still matches",
			err:       fmt.Errorf("deleting post: %w", NotFound("post", 7)),
			target:    ErrNotFound,
			wantMatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("post", 12),
			wantMessage: "post not found with id 12",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("email", "email is required"),
			wantMessage: "email is required",
		},
		{
			name:        "Conflict message includes resource and id",
			err:         Conflict("session", "abc"),
			wantMessage: "session conflict with id abc",
		},
		{
			name:        "DuplicateTitle quotes the title",
			err:         DuplicateTitle("Hello"),
			wantMessage: `a post titled "Hello" already exists`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestInvalidCredentials_SameMessageForBothFields(t *testing.T) {
	email := InvalidCredentials("email")
	password := InvalidCredentials("password")

	if email.Error() != password.Error() {
		t.Errorf("messages differ: %q vs %q", email.Error(), password.Error())
	}
	if email.Field != "email" || password.Field != "password" {
		t.Errorf("Field = %q/%q, want email/password", email.Field, password.Field)
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("post", 1)
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}
