package auth

import (
	"github.com/sakif/blog/internal/apperror"
)

// AdminUserID is the one account allowed to author posts.
//
// Being the first registered user is the only thing that makes an account the
// administrator. There is no role column.
const AdminUserID int64 = 1

// Identity is who a request is acting as. The zero value is Anonymous.
type Identity struct {
	UserID int64
}

// Anonymous is the identity of a request with no valid session.
var Anonymous = Identity{}

// IsAuthenticated reports whether the identity names a user.
func (i Identity) IsAuthenticated() bool {
	return i.UserID > 0
}

// Guard answers permission questions. It holds no state and never touches
// storage; its zero value is ready to use.
type Guard struct{}

// IsAdmin reports whether id is the site administrator (user AdminUserID).
func (Guard) IsAdmin(id Identity) bool {
	return id.IsAuthenticated() && id.UserID == AdminUserID
}

// CanComment reports whether id may comment, i.e. is logged in.
func (Guard) CanComment(id Identity) bool {
	return id.IsAuthenticated()
}

// RequireAdmin returns an apperror.ErrForbidden error unless id is the admin.
func (g Guard) RequireAdmin(id Identity) error {
	if !g.IsAdmin(id) {
		return apperror.Forbidden("only the site administrator can do that")
	}
	return nil
}

// RequireCommenter returns an apperror.ErrForbidden error for anonymous
// identities.
func (g Guard) RequireCommenter(id Identity) error {
	if !g.CanComment(id) {
		return apperror.Forbidden("you need to login or register to comment")
	}
	return nil
}
