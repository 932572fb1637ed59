package model

import "time"

// Session is the server-side half of a login. The browser holds a signed
// token naming the session ID; deleting the row logs that browser out.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
