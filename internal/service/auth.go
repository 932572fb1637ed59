package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// AuthService registers accounts and checks credentials.
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt)
//
// It does not start sessions. The handler passes the returned user's ID to
// auth.SessionManager.Login, so this layer never sees cookies or tokens.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates an account. Emails are matched exactly (case-sensitive):
// an existing one returns apperror.ErrAlreadyRegistered and stores nothing.
//
// The lookup happens first so the common case never hashes a password for
// nothing. Two simultaneous registrations can both pass it; the UNIQUE index
// on users.email then turns the loser into the same AlreadyRegistered error.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}
	if existing != nil {
		return nil, apperror.AlreadyRegistered()
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrAlreadyRegistered) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("userID", user.ID))
	return user, nil
}

// Authenticate returns the user whose email and password both match.
// Unknown emails and wrong passwords produce the same
// apperror.ErrInvalidCredentials message; only Field tells them apart.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}
	if user == nil {
		return nil, apperror.InvalidCredentials("email")
	}

	if !s.passwords.Matches(user.PasswordHash, password) {
		s.logger.Info("failed login", slog.Int64("userID", user.ID))
		return nil, apperror.InvalidCredentials("password")
	}

	return user, nil
}

// LoginWithGitHub finds or creates the account for a GitHub profile.
//
// Accounts are keyed by email, so a reader who registered with a password can
// later sign in through GitHub with the same address. New accounts get a
// random password nobody knows; they can only sign in through GitHub.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	email := strings.TrimSpace(ghUser.Email)
	if email == "" {
		return nil, apperror.ValidationFailed("email",
			"Your GitHub account has no verified email address. Please register instead.")
	}

	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}
	if existing != nil {
		s.logger.Info("user authenticated via GitHub",
			slog.Int64("userID", existing.ID),
			slog.String("login", ghUser.Login),
		)
		return existing, nil
	}

	secret, err := randomPassword()
	if err != nil {
		return nil, err
	}
	user, err := s.Register(ctx, ghUser.DisplayName(), email, secret)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("login", ghUser.Login),
	)
	return user, nil
}

// GetUser returns the user with the given id, or apperror.ErrNotFound.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, apperror.NotFound("user", id)
	}
	return s.users.GetUserByID(ctx, id)
}

// randomPassword returns 64 hex characters, under bcrypt's 72-byte limit.
func randomPassword() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("service/auth: generating password: %w", err)
	}
	return hex.EncodeToString(b), nil
}
