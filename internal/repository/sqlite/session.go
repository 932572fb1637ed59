package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// CreateSession stores a new login session. The caller picks the ID.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.CreatedAt.Unix(),
		session.ExpiresAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("session", session.ID)
		}
		return fmt.Errorf("sqlite: creating session for user %d: %w", session.UserID, err)
	}
	return nil
}

// GetSession returns the session with the given id, expired or not.
// Returns apperror.ErrNotFound if it was never created or has been deleted.
func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var (
		s                    model.Session
		createdAt, expiresAt int64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.UserID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &s, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error:
// logging out twice leaves the browser in the same anonymous state.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions prunes sessions whose expiry is at or before now.
func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
