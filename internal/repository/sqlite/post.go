package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// postColumns is shared by every post SELECT so scanPost stays in sync.
const postColumns = `p.id, p.title, p.subtitle, p.date, p.body, p.img_url, p.author_id, u.name`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.BlogPost, error) {
	var p model.BlogPost
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Subtitle,
		&p.Date,
		&p.Body,
		&p.ImgURL,
		&p.AuthorID,
		&p.AuthorName,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePost inserts post and sets post.ID. The caller stamps Date and
// AuthorID; neither is touched again by UpdatePost.
func (db *DB) CreatePost(ctx context.Context, post *model.BlogPost) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO blog_posts (author_id, title, subtitle, date, body, img_url)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.AuthorID,
		post.Title,
		post.Subtitle,
		post.Date,
		post.Body,
		post.ImgURL,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateTitle(post.Title)
		}
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new post id: %w", err)
	}
	post.ID = id

	return nil
}

// GetPost returns the post with the given id, with its author's name.
func (db *DB) GetPost(ctx context.Context, id int64) (*model.BlogPost, error) {
	post, err := scanPost(db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+`
		 FROM blog_posts p JOIN users u ON u.id = p.author_id
		 WHERE p.id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}
	return post, nil
}

// ListPosts returns all posts ordered by id, i.e. insertion order.
func (db *DB) ListPosts(ctx context.Context) ([]model.BlogPost, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+`
		 FROM blog_posts p JOIN users u ON u.id = p.author_id
		 ORDER BY p.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := []model.BlogPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

// UpdatePost rewrites the editable fields of an existing post.
// author_id and date are deliberately absent from the SET list.
func (db *DB) UpdatePost(ctx context.Context, post *model.BlogPost) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE blog_posts
		 SET title = ?, subtitle = ?, body = ?, img_url = ?
		 WHERE id = ?`,
		post.Title,
		post.Subtitle,
		post.Body,
		post.ImgURL,
		post.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateTitle(post.Title)
		}
		return fmt.Errorf("sqlite: updating post %d: %w", post.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// DeletePost removes a post and every comment on it.
//
// The comments are deleted explicitly inside the same transaction, so the
// result does not depend on ON DELETE CASCADE.
func (db *DB) DeletePost(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete of post %d: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE blog_post_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting comments of post %d: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete of post %d: %w", id, err)
	}
	return nil
}
