package model

import "time"

// Comment is a reader's remark on a post. Comments are never edited; they
// disappear only when their post is deleted.
type Comment struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorID   int64     `json:"authorId"`
	BlogPostID int64     `json:"blogPostId"`
	CreatedAt  time.Time `json:"createdAt"`

	// Joined from users on read.
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"-"`
}
