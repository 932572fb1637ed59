package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/service"
)

// PostHandler serves a post with its comments and the admin's post editor.
//
// The admin pages check the Guard before showing a form. ContentService
// checks again before it touches any data.
type PostHandler struct {
	view    *View
	content *service.ContentService
	guard   auth.Guard
}

func NewPostHandler(view *View, content *service.ContentService) *PostHandler {
	return &PostHandler{view: view, content: content}
}

// HTTP: GET /post/{id}
func (h *PostHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	id, err := postIDParam(r)
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}
	h.renderPost(w, r, http.StatusOK, id, nil)
}

// HandleComment adds a comment to a post.
//
// HTTP: POST /post/{id}
//
// Anonymous visitors are sent to /login with "Login to comment".
func (h *PostHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	id, err := postIDParam(r)
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	if !h.guard.CanComment(identity) {
		h.view.redirectWithFlash(w, r, "Login to comment", "/login")
		return
	}

	f, err := parseForm(r)
	if err != nil {
		h.view.renderError(w, r, apperror.ValidationFailed("form", "malformed form body"))
		return
	}
	validateComment(f)
	if !f.Valid() {
		h.renderPost(w, r, http.StatusUnprocessableEntity, id, f)
		return
	}

	if _, err := h.content.AddComment(r.Context(), identity, id, f.Get("comment")); err != nil {
		h.view.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/post/%d", id), http.StatusSeeOther)
}

func (h *PostHandler) renderPost(w http.ResponseWriter, r *http.Request, status int, id int64, f *form) {
	post, err := h.content.GetPost(r.Context(), id)
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}
	comments, err := h.content.ListComments(r.Context(), id)
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}

	h.view.Render(w, r, status, "post.html", &Page{
		Title:    post.Title,
		Post:     post,
		Comments: comments,
		Form:     f,
	})
}

// HTTP: GET /new-post
func (h *PostHandler) HandleNewForm(w http.ResponseWriter, r *http.Request) {
	if err := h.guard.RequireAdmin(auth.IdentityFromContext(r.Context())); err != nil {
		h.view.renderError(w, r, err)
		return
	}
	h.renderEditor(w, r, http.StatusOK, "/new-post", false, nil)
}

// HandleCreate publishes a new post.
//
// HTTP: POST /new-post
//
// A taken title re-renders the form with the message instead of redirecting,
// so the admin does not lose what they typed.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if err := h.guard.RequireAdmin(identity); err != nil {
		h.view.renderError(w, r, err)
		return
	}

	f, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}
	if !f.Valid() {
		h.renderEditor(w, r, http.StatusUnprocessableEntity, "/new-post", false, f)
		return
	}

	_, err := h.content.CreatePost(r.Context(), identity, postInput(f))
	if h.editorError(w, r, err, "/new-post", false, f) {
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HTTP: GET /edit-post/{id}
func (h *PostHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	if err := h.guard.RequireAdmin(auth.IdentityFromContext(r.Context())); err != nil {
		h.view.renderError(w, r, err)
		return
	}
	id, err := postIDParam(r)
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}

	post, err := h.content.GetPost(r.Context(), id)
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}

	h.renderEditor(w, r, http.StatusOK, fmt.Sprintf("/edit-post/%d", id), true, postFormFrom(post))
}

// HandleUpdate saves an edited post and shows it.
//
// HTTP: POST /edit-post/{id}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if err := h.guard.RequireAdmin(identity); err != nil {
		h.view.renderError(w, r, err)
		return
	}
	id, err := postIDParam(r)
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}
	action := fmt.Sprintf("/edit-post/%d", id)

	f, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}
	if !f.Valid() {
		h.renderEditor(w, r, http.StatusUnprocessableEntity, action, true, f)
		return
	}

	_, err = h.content.UpdatePost(r.Context(), identity, id, postInput(f))
	if h.editorError(w, r, err, action, true, f) {
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/post/%d", id), http.StatusSeeOther)
}

// HandleDelete removes a post and its comments.
//
// HTTP: GET /delete/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if err := h.guard.RequireAdmin(identity); err != nil {
		h.view.renderError(w, r, err)
		return
	}
	id, err := postIDParam(r)
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}

	if err := h.content.DeletePost(r.Context(), identity, id); err != nil {
		h.view.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PostHandler) parsePostForm(w http.ResponseWriter, r *http.Request) (*form, bool) {
	f, err := parseForm(r)
	if err != nil {
		h.view.renderError(w, r, apperror.ValidationFailed("form", "malformed form body"))
		return nil, false
	}
	validatePost(f)
	return f, true
}

// editorError handles a failed create/update. It reports whether a response
// was written.
//
// A taken title does not redirect back to the form with a flash: the editor
// is re-rendered in place with status 409, the flash and the field error, so
// the submitted post text is kept.
func (h *PostHandler) editorError(w http.ResponseWriter, r *http.Request, err error, action string, isEdit bool, f *form) bool {
	if err == nil {
		return false
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusConflict
		switch {
		case errors.Is(err, apperror.ErrDuplicateTitle):
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusUnprocessableEntity
		default:
			h.view.renderError(w, r, err)
			return true
		}
		f.setError(appErr.Field, appErr.Message)
		h.renderEditor(w, r, status, action, isEdit, f, appErr.Message)
		return true
	}

	h.view.renderError(w, r, err)
	return true
}

func (h *PostHandler) renderEditor(w http.ResponseWriter, r *http.Request, status int, action string, isEdit bool, f *form, flashes ...string) {
	title := "New Post"
	if isEdit {
		title = "Edit Post"
	}
	h.view.Render(w, r, status, "make-post.html", &Page{
		Title:   title,
		Form:    f,
		Action:  action,
		IsEdit:  isEdit,
		Flashes: flashes,
	})
}

func postInput(f *form) service.PostInput {
	return service.PostInput{
		Title:    f.Get("title"),
		Subtitle: f.Get("subtitle"),
		Body:     f.Get("body"),
		ImgURL:   f.Get("img_url"),
	}
}
