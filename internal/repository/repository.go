// Package repository declares the storage interfaces the services depend on.
//
// The sqlite subpackage is the only production implementation; service tests
// use in-memory fakes. Every method performs its writes as one atomic unit.
package repository

import (
	"context"
	"time"

	"github.com/sakif/blog/internal/model"
)

type UserRepository interface {
	// CreateUser inserts user and sets its ID and CreatedAt. A taken email
	// returns apperror.ErrAlreadyRegistered.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	// FindUserByEmail returns (nil, nil) when no user has that exact email.
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type PostRepository interface {
	// CreatePost inserts post and sets its ID. A taken title returns
	// apperror.ErrDuplicateTitle.
	CreatePost(ctx context.Context, post *model.BlogPost) error
	GetPost(ctx context.Context, id int64) (*model.BlogPost, error)
	// ListPosts returns every post in insertion order.
	ListPosts(ctx context.Context) ([]model.BlogPost, error)
	// UpdatePost rewrites title, subtitle, body and image URL only.
	UpdatePost(ctx context.Context, post *model.BlogPost) error
	// DeletePost removes the post and all of its comments in one transaction.
	DeletePost(ctx context.Context, id int64) error
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	ListCommentsByPost(ctx context.Context, postID int64) ([]model.Comment, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// DeleteExpiredSessions removes sessions that expired before now and
	// returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
