// Package model defines the records kept in the identity store.
//
// Records reference each other only through integer foreign keys (AuthorID,
// BlogPostID, UserID). There are no in-memory back-pointers between records;
// related rows are always fetched through the repository by id.
package model

import "time"

// User represents a registered account.
//
// The user with ID 1 is the site administrator. That is a convention of the
// auth package (auth.AdminUserID), not a stored flag.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
