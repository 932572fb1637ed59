package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
)

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister_ThenAuthenticate(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "a@x.io", "pw1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("Register() should assign an ID")
	}
	if user.PasswordHash == "pw1" || !strings.HasPrefix(user.PasswordHash, "$2") {
		t.Errorf("PasswordHash = %q, want a bcrypt digest", user.PasswordHash)
	}

	got, err := svc.Authenticate(ctx, "a@x.io", "pw1")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.Email != "a@x.io" || got.ID != user.ID {
		t.Errorf("Authenticate() = %+v, want user %d", got, user.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "a@x.io", "pw1"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(ctx, "Alice again", "a@x.io", "pw2")
	if !errors.Is(err, apperror.ErrAlreadyRegistered) {
		t.Fatalf("second Register() error = %v, want ErrAlreadyRegistered", err)
	}
	if len(store.users) != 1 {
		t.Errorf("users stored = %d, want 1", len(store.users))
	}
}

func TestRegister_EmailIsCaseSensitive(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "a@x.io", "pw1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Register(ctx, "Other", "A@x.io", "pw1"); err != nil {
		t.Fatalf("Register() with different case error = %v", err)
	}
}

func TestRegister_LosingTheRaceIsAlreadyRegistered(t *testing.T) {
	store := newFakeStore()
	store.raceEmail = "a@x.io"
	svc := newTestAuthService(t, store)

	_, err := svc.Register(context.Background(), "Alice", "a@x.io", "pw1")
	if !errors.Is(err, apperror.ErrAlreadyRegistered) {
		t.Fatalf("Register() error = %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name, user, email, password string
		wantField                   string
	}{
		{"blank name", "  ", "a@x.io", "pw", "name"},
		{"blank email", "Alice", "", "pw", "email"},
		{"blank password", "Alice", "a@x.io", "", "password"},
		{"password too long", "Alice", "a@x.io", strings.Repeat("p", 73), "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestAuthService(t, store)

			_, err := svc.Register(context.Background(), tt.user, tt.email, tt.password)
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Register() error = %v, want ErrValidation", err)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
			if len(store.users) != 0 {
				t.Error("invalid registration must not store a user")
			}
		})
	}
}

func TestRegister_StoreError(t *testing.T) {
	store := newFakeStore()
	store.findErr = errors.New("database is on fire")
	svc := newTestAuthService(t, store)

	if _, err := svc.Register(context.Background(), "Alice", "a@x.io", "pw"); err == nil {
		t.Fatal("Register() should propagate repository errors")
	}
}

// =========================================================================
// Authenticate TESTS
// =========================================================================

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "a@x.io", "pw1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name, email, password, wantField string
	}{
		{"unknown email", "nobody@x.io", "pw1", "email"},
		{"wrong password", "a@x.io", "wrong", "password"},
		{"empty password", "a@x.io", "", "password"},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrInvalidCredentials) {
				t.Fatalf("Authenticate() error = %v, want ErrInvalidCredentials", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
			messages = append(messages, err.Error())
		})
	}

	for _, m := range messages[1:] {
		if m != messages[0] {
			t.Errorf("messages differ: %q vs %q", m, messages[0])
		}
	}
}

// =========================================================================
// LoginWithGitHub TESTS
// =========================================================================

func TestLoginWithGitHub_NewUser(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store)

	user, err := svc.LoginWithGitHub(context.Background(), &auth.GitHubUser{
		ID: 42, Login: "octocat", Email: "octo@example.com",
	})
	if err != nil {
		t.Fatalf("LoginWithGitHub() error = %v", err)
	}
	if user.ID == 0 || user.Name != "octocat" || user.Email != "octo@example.com" {
		t.Errorf("LoginWithGitHub() = %+v", user)
	}
	if len(store.users) != 1 {
		t.Errorf("users stored = %d, want 1", len(store.users))
	}
}

func TestLoginWithGitHub_ExistingEmailReusesAccount(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alice", "a@x.io", "pw1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.LoginWithGitHub(ctx, &auth.GitHubUser{ID: 7, Login: "alice-gh", Email: "a@x.io"})
	if err != nil {
		t.Fatalf("LoginWithGitHub() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("user.ID = %d, want %d", user.ID, registered.ID)
	}
	if len(store.users) != 1 {
		t.Errorf("users stored = %d, want 1", len(store.users))
	}
	// The password still works alongside GitHub.
	if _, err := svc.Authenticate(ctx, "a@x.io", "pw1"); err != nil {
		t.Errorf("Authenticate() after GitHub login error = %v", err)
	}
}

func TestLoginWithGitHub_Refusals(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store)

	if _, err := svc.LoginWithGitHub(context.Background(), nil); err == nil {
		t.Error("LoginWithGitHub(nil) should fail")
	}

	_, err := svc.LoginWithGitHub(context.Background(), &auth.GitHubUser{ID: 1, Login: "hidden"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("LoginWithGitHub() without email error = %v, want ErrValidation", err)
	}
	if len(store.users) != 0 {
		t.Error("refused GitHub login must not store a user")
	}
}

// =========================================================================
// GetUser TESTS
// =========================================================================

func TestGetUser(t *testing.T) {
	store := newFakeStore()
	seedUsers(t, store)
	svc := newTestAuthService(t, store)

	user, err := svc.GetUser(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.Name != "Alice" {
		t.Errorf("Name = %q, want Alice", user.Name)
	}

	for _, id := range []int64{0, -1, 99} {
		if _, err := svc.GetUser(context.Background(), id); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("GetUser(%d) error = %v, want ErrNotFound", id, err)
		}
	}
}
