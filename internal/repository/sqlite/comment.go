package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

// CreateComment inserts comment and sets its ID and CreatedAt. A post that no
// longer exists returns apperror.ErrNotFound.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.CreatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (text, author_id, blog_post_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		comment.Text,
		comment.AuthorID,
		comment.BlogPostID,
		comment.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("post", comment.BlogPostID)
		}
		return fmt.Errorf("sqlite: creating comment on post %d: %w", comment.BlogPostID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new comment id: %w", err)
	}
	comment.ID = id

	return nil
}

// ListCommentsByPost returns the comments of one post, oldest first, with the
// author's name and email joined in.
func (db *DB) ListCommentsByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.text, c.author_id, c.blog_post_id, c.created_at, u.name, u.email
		 FROM comments c JOIN users u ON u.id = c.author_id
		 WHERE c.blog_post_id = ?
		 ORDER BY c.id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments of post %d: %w", postID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(
			&c.ID, &c.Text, &c.AuthorID, &c.BlogPostID, &c.CreatedAt,
			&c.AuthorName, &c.AuthorEmail,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}
