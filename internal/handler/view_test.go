package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/web"
)

const testFlashSecret = "flash-secret-for-tests-only!!"

type fakeUsers map[int64]*model.User

func (f fakeUsers) GetUser(_ context.Context, id int64) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestView(t *testing.T, users fakeUsers) *View {
	t.Helper()
	v, err := NewView(web.FS, NewFlashStore(testFlashSecret, false, testLogger()), users, false, testLogger())
	require.NoError(t, err)
	return v
}

func requestAs(id auth.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(auth.WithIdentity(req.Context(), id))
}

func TestGravatarURL(t *testing.T) {
	// The address and hash from Gravatar's own documentation.
	got := gravatarURL("  MyEmailAddress@example.com ")

	assert.True(t, strings.HasPrefix(got, "https://www.gravatar.com/avatar/0bc83cb571cd1c50ba6f3e8a78ef1346?"), got)
	assert.Contains(t, got, "d=retro")
	assert.Contains(t, got, "r=g")
	assert.Contains(t, got, "s=100")
}

func TestNewView_ParsesEveryPage(t *testing.T) {
	v := newTestView(t, fakeUsers{})
	for _, name := range pageFiles {
		assert.Contains(t, v.pages, name)
	}
}

func TestRender_Layout(t *testing.T) {
	users := fakeUsers{
		1: {ID: 1, Name: "Admin"},
		2: {ID: 2, Name: "Alice"},
	}
	v := newTestView(t, users)
	posts := []model.BlogPost{{ID: 7, Title: "Hello", Subtitle: "World", Date: "August 24, 2026", AuthorName: "Admin"}}

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		v.Render(rec, requestAs(auth.Anonymous), http.StatusOK, "index.html", &Page{Posts: posts})

		body := rec.Body.String()
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, body, "Hello")
		assert.Contains(t, body, `href="/login"`)
		assert.NotContains(t, body, `href="/logout"`)
		assert.NotContains(t, body, "/new-post")
		assert.NotContains(t, body, "/delete/7")
	})

	t.Run("regular user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		v.Render(rec, requestAs(auth.Identity{UserID: 2}), http.StatusOK, "index.html", &Page{Posts: posts})

		body := rec.Body.String()
		assert.Contains(t, body, `href="/logout"`)
		assert.Contains(t, body, "Signed in as Alice")
		assert.NotContains(t, body, "/new-post")
	})

	t.Run("admin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		v.Render(rec, requestAs(auth.Identity{UserID: 1}), http.StatusOK, "index.html", &Page{Posts: posts})

		body := rec.Body.String()
		assert.Contains(t, body, "/new-post")
		assert.Contains(t, body, "/delete/7")
	})
}

func TestRender_PostEscapesCommentsButNotBody(t *testing.T) {
	v := newTestView(t, fakeUsers{})
	rec := httptest.NewRecorder()

	v.Render(rec, requestAs(auth.Anonymous), http.StatusOK, "post.html", &Page{
		Post: &model.BlogPost{ID: 1, Title: "T", Body: "<p>trusted</p>"},
		Comments: []model.Comment{
			{ID: 1, Text: "<script>alert(1)</script>", AuthorName: "Mallory", AuthorEmail: "m@x.io"},
		},
	})

	body := rec.Body.String()
	assert.Contains(t, body, "<p>trusted</p>")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "gravatar.com/avatar/")
}

func TestRender_UnknownTemplate(t *testing.T) {
	v := newTestView(t, fakeUsers{})
	rec := httptest.NewRecorder()

	v.Render(rec, requestAs(auth.Anonymous), http.StatusOK, "missing.html", &Page{})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"forbidden", apperror.Forbidden("no"), http.StatusForbidden},
		{"not found", apperror.NotFound("post", 1), http.StatusNotFound},
		{"wrapped not found", errors.Join(errors.New("ctx"), apperror.NotFound("post", 1)), http.StatusNotFound},
		{"validation", apperror.ValidationFailed("title", "bad"), http.StatusBadRequest},
		{"duplicate title", apperror.DuplicateTitle("x"), http.StatusConflict},
		{"already registered", apperror.AlreadyRegistered(), http.StatusConflict},
		{"invalid credentials", apperror.InvalidCredentials("email"), http.StatusUnauthorized},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := statusFor(tt.err)
			assert.Equal(t, tt.want, status)
			assert.NotContains(t, msg, "disk on fire")
		})
	}
}

func TestRenderError_Page(t *testing.T) {
	v := newTestView(t, fakeUsers{})
	rec := httptest.NewRecorder()

	v.renderError(rec, requestAs(auth.Anonymous), apperror.Forbidden("only the site administrator can do that"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "only the site administrator can do that")
}
