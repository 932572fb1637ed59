package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/service"
)

// PageHandler serves the read-only pages.
type PageHandler struct {
	view    *View
	content *service.ContentService
}

func NewPageHandler(view *View, content *service.ContentService) *PageHandler {
	return &PageHandler{view: view, content: content}
}

// HandleHome lists every post.
//
// HTTP: GET /
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.ListPosts(r.Context())
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "index.html", &Page{Posts: posts})
}

// HTTP: GET /about
func (h *PageHandler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, "about.html", &Page{Title: "About"})
}

// HTTP: GET /contact
func (h *PageHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, "contact.html", &Page{Title: "Contact"})
}

// HandleNotFound renders the 404 page for unmatched routes.
func (h *PageHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.view.renderError(w, r, apperror.NotFound("page", r.URL.Path))
}

// postIDParam reads the {id} URL parameter. Anything that is not a positive
// integer names no post.
func postIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("post", raw)
	}
	return id, nil
}
