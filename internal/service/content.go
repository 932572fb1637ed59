// Package service contains the business rules of the blog.
//
//	Handler (HTTP layer)     → parses forms, renders pages
//	Service (Business layer) → checks permissions, enforces rules
//	Repository (Data layer)  → reads/writes the database
//
// Services take repository interfaces, not *sqlite.DB, so tests run against
// in-memory fakes and never touch HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// PostInput is the editable part of a post. Date and author are never
// supplied by callers.
type PostInput struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

// ContentService owns posts and comments.
//
// Every mutating method runs the Guard check before any store access, so a
// refused request reads and writes nothing.
type ContentService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	guard    auth.Guard
	now      func() time.Time
	logger   *slog.Logger
}

func NewContentService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	logger *slog.Logger,
) *ContentService {
	return &ContentService{
		posts:    posts,
		comments: comments,
		now:      time.Now,
		logger:   logger,
	}
}

// ListPosts returns every post in the order it was created.
func (s *ContentService) ListPosts(ctx context.Context) ([]model.BlogPost, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// GetPost returns apperror.ErrNotFound for unknown ids.
func (s *ContentService) GetPost(ctx context.Context, id int64) (*model.BlogPost, error) {
	return s.posts.GetPost(ctx, id)
}

// ListComments returns the comments of a post, oldest first.
func (s *ContentService) ListComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	comments, err := s.comments.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments of post %d: %w", postID, err)
	}
	return comments, nil
}

// CreatePost publishes a post authored by id, dated today.
func (s *ContentService) CreatePost(ctx context.Context, id auth.Identity, in PostInput) (*model.BlogPost, error) {
	if err := s.guard.RequireAdmin(id); err != nil {
		return nil, err
	}
	in = in.trimmed()
	if in.Title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}

	post := &model.BlogPost{
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Body:     in.Body,
		ImgURL:   in.ImgURL,
		Date:     s.now().Format(model.DateLayout),
		AuthorID: id.UserID,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post created",
		slog.Int64("postID", post.ID),
		slog.String("title", post.Title),
	)

	// Re-read so the caller gets the joined author name.
	return s.posts.GetPost(ctx, post.ID)
}

// UpdatePost replaces the editable fields of post postID. Author and date
// stay as they were.
func (s *ContentService) UpdatePost(ctx context.Context, id auth.Identity, postID int64, in PostInput) (*model.BlogPost, error) {
	if err := s.guard.RequireAdmin(id); err != nil {
		return nil, err
	}
	in = in.trimmed()
	if in.Title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}

	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Subtitle = in.Subtitle
	post.Body = in.Body
	post.ImgURL = in.ImgURL

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post updated", slog.Int64("postID", post.ID))
	return post, nil
}

// DeletePost removes post postID together with its comments.
func (s *ContentService) DeletePost(ctx context.Context, id auth.Identity, postID int64) error {
	if err := s.guard.RequireAdmin(id); err != nil {
		return err
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return err
	}

	s.logger.Info("post deleted", slog.Int64("postID", postID))
	return nil
}

// AddComment stores a comment by id on post postID. text has already been
// checked for emptiness by the form.
func (s *ContentService) AddComment(ctx context.Context, id auth.Identity, postID int64, text string) (*model.Comment, error) {
	if err := s.guard.RequireCommenter(id); err != nil {
		return nil, err
	}

	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		Text:       text,
		AuthorID:   id.UserID,
		BlogPostID: postID,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("adding comment to post %d: %w", postID, err)
	}

	s.logger.Info("comment added",
		slog.Int64("postID", postID),
		slog.Int64("userID", id.UserID),
	)
	return comment, nil
}

func (in PostInput) trimmed() PostInput {
	return PostInput{
		Title:    strings.TrimSpace(in.Title),
		Subtitle: strings.TrimSpace(in.Subtitle),
		Body:     in.Body,
		ImgURL:   strings.TrimSpace(in.ImgURL),
	}
}
