package model

// DateLayout is the publish date format, e.g. "August 24, 2026".
const DateLayout = "January 02, 2006"

// BlogPost is a single article. Date is stored as the formatted string the
// post was stamped with at creation and is never rewritten.
type BlogPost struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Date     string `json:"date"`
	Body     string `json:"body"`
	ImgURL   string `json:"imgUrl"`
	AuthorID int64  `json:"authorId"`

	// AuthorName is joined from users on read; it is not a column of blog_posts.
	AuthorName string `json:"authorName"`
}
