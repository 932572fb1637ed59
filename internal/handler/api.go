package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/service"
)

type apiContextKey string

const postKey apiContextKey = "post"

// APIHandler is the read-only JSON view of the blog.
//
//	GET /api/posts       → every post
//	GET /api/posts/{id}  → one post with its comments
type APIHandler struct {
	content *service.ContentService
	logger  *slog.Logger
}

func NewAPIHandler(content *service.ContentService, logger *slog.Logger) *APIHandler {
	return &APIHandler{content: content, logger: logger}
}

// PostCtx loads the post named by {id} into the request context, or answers
// 404 and stops the chain.
func (h *APIHandler) PostCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := postIDParam(r)
		if err != nil {
			h.renderErr(w, r, err)
			return
		}

		post, err := h.content.GetPost(r.Context(), id)
		if err != nil {
			h.renderErr(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), postKey, post)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HTTP: GET /api/posts
func (h *APIHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.ListPosts(r.Context())
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	if err := render.RenderList(w, r, newPostListResponse(posts)); err != nil {
		h.renderErr(w, r, err)
	}
}

// HTTP: GET /api/posts/{id}
func (h *APIHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	post := r.Context().Value(postKey).(*model.BlogPost)

	comments, err := h.content.ListComments(r.Context(), post.ID)
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	resp := newPostResponse(post)
	resp.Comments = make([]*CommentResponse, 0, len(comments))
	for i := range comments {
		resp.Comments = append(resp.Comments, newCommentResponse(&comments[i]))
	}

	if err := render.Render(w, r, resp); err != nil {
		h.renderErr(w, r, err)
	}
}

func (h *APIHandler) renderErr(w http.ResponseWriter, r *http.Request, err error) {
	resp := errResponse(err)
	if resp.HTTPStatusCode == http.StatusInternalServerError {
		h.logger.Error("api request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	if rerr := render.Render(w, r, resp); rerr != nil {
		h.logger.Error("rendering api error", slog.String("error", rerr.Error()))
	}
}

// PostResponse is the JSON payload for a post. Comments is only set on the
// single-post endpoint.
type PostResponse struct {
	*model.BlogPost

	URL      string             `json:"url"`
	Comments []*CommentResponse `json:"comments,omitempty"`
}

func newPostResponse(p *model.BlogPost) *PostResponse {
	return &PostResponse{BlogPost: p}
}

func newPostListResponse(posts []model.BlogPost) []render.Renderer {
	list := []render.Renderer{}
	for i := range posts {
		list = append(list, newPostResponse(&posts[i]))
	}
	return list
}

func (p *PostResponse) Render(w http.ResponseWriter, r *http.Request) error {
	p.URL = "/post/" + strconv.FormatInt(p.ID, 10)
	return nil
}

// CommentResponse exposes the avatar URL instead of the author's email.
type CommentResponse struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"authorName"`
	AvatarURL  string    `json:"avatarUrl"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newCommentResponse(c *model.Comment) *CommentResponse {
	return &CommentResponse{
		ID:         c.ID,
		Text:       c.Text,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		AvatarURL:  gravatarURL(c.AuthorEmail),
		CreatedAt:  c.CreatedAt,
	}
}

// ErrResponse renderer type for handling all sorts of errors.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	ErrorText  string `json:"error,omitempty"` // application-level error message
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// errResponse maps err onto the same statuses the HTML pages use.
func errResponse(err error) *ErrResponse {
	status, msg := statusFor(err)

	text := "Error."
	switch status {
	case http.StatusNotFound:
		text = "Resource not found."
	case http.StatusBadRequest:
		text = "Invalid request."
	case http.StatusForbidden:
		text = "Forbidden."
	case http.StatusInternalServerError:
		text = "Internal server error."
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     text,
		ErrorText:      msg,
	}
}
