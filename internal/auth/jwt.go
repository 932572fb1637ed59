// Package auth holds the credential, session and authorization pieces of the
// blog: password hashing, signed session tokens, the session manager and the
// admin/commenter guard.
//
// SESSION TOKEN FORMAT:
// A session token is an HS256 JWT carried in the HttpOnly "token" cookie:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Payload: {"iss":"blog","sub":"<user id>","jti":"<session id>","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
//
// The signature makes the token unforgeable without the process-wide secret.
// The jti names a row in the sessions table; the SessionManager only accepts
// a token while that row exists, which is what makes logout effective.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "blog"

// MinSecretLength is the shortest signing secret NewTokenService accepts.
const MinSecretLength = 16

// TokenService signs and verifies session tokens with an HMAC secret.
//
// The secret is fixed when the service is created and never changes, so a
// single TokenService is safe for concurrent use by all request handlers.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Example: SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: session secret must be at least %d characters", MinSecretLength)
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// SessionClaims is what a valid token proves: which user logged in, and
// under which server-side session.
type SessionClaims struct {
	UserID    int64
	SessionID string
	ExpiresAt time.Time
}

// Generate signs a token for userID bound to sessionID, valid for ttl.
func (s *TokenService) Generate(userID int64, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    tokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string.
//
// Checks performed: signature, HS256 only (no "none"/algorithm confusion),
// issuer, expiry present and in the future, numeric subject, non-empty jti.
func (s *TokenService) Validate(tokenStr string) (*SessionClaims, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("auth: token has no valid subject")
	}
	if c.ID == "" {
		return nil, fmt.Errorf("auth: token has no session id")
	}

	return &SessionClaims{
		UserID:    userID,
		SessionID: c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
