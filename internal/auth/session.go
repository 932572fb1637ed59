package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// DefaultSessionTTL is how long a login lasts when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// SessionManager moves a browser between Anonymous and Authenticated.
//
// A login is two halves: a row in the sessions table and a signed token that
// names it. CurrentIdentity needs both to agree, so deleting the row is enough
// to log a browser out even though its token still carries a valid signature.
type SessionManager struct {
	tokens   *TokenService
	sessions repository.SessionRepository
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewSessionManager creates a SessionManager. A non-positive ttl falls back to
// DefaultSessionTTL.
func NewSessionManager(
	tokens *TokenService,
	sessions repository.SessionRepository,
	ttl time.Duration,
	logger *slog.Logger,
) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		tokens:   tokens,
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// TTL is the lifetime of every session this manager creates.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Login starts a session for userID and returns the token to hand the browser.
// Any identity already held by the browser is simply replaced by the caller
// overwriting its cookie.
func (m *SessionManager) Login(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("auth: cannot log in user id %d", userID)
	}

	now := m.now().UTC()
	m.pruneExpired(ctx, now)

	session := &model.Session{
		ID:        xid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.sessions.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("auth: creating session: %w", err)
	}

	token, err := m.tokens.Generate(userID, session.ID, m.ttl)
	if err != nil {
		return "", err
	}

	m.logger.Debug("session started",
		slog.Int64("userID", userID),
		slog.String("sessionID", session.ID),
	)
	return token, nil
}

// CurrentIdentity resolves a token to the identity it proves. It never fails:
// anything that does not check out is Anonymous. It does not write.
func (m *SessionManager) CurrentIdentity(ctx context.Context, token string) Identity {
	if token == "" {
		return Anonymous
	}

	claims, err := m.tokens.Validate(token)
	if err != nil {
		m.logger.Debug("rejected session token", slog.String("error", err.Error()))
		return Anonymous
	}

	session, err := m.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		return Anonymous
	}
	if session.UserID != claims.UserID || session.Expired(m.now()) {
		return Anonymous
	}

	return Identity{UserID: session.UserID}
}

// Logout ends the session named by token. Unknown, invalid or already ended
// tokens are not an error; the browser ends up anonymous either way.
func (m *SessionManager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := m.tokens.Validate(token)
	if err != nil {
		return nil
	}

	if err := m.sessions.DeleteSession(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("auth: ending session: %w", err)
	}

	m.logger.Debug("session ended",
		slog.Int64("userID", claims.UserID),
		slog.String("sessionID", claims.SessionID),
	)
	return nil
}

// pruneExpired drops stale rows. Failure only costs disk space, so it is
// logged and otherwise ignored.
func (m *SessionManager) pruneExpired(ctx context.Context, now time.Time) {
	n, err := m.sessions.DeleteExpiredSessions(ctx, now)
	if err != nil {
		m.logger.Warn("pruning expired sessions failed", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		m.logger.Debug("pruned expired sessions", slog.Int64("count", n))
	}
}
