// Package handler contains the HTTP handlers of the blog: HTML pages rendered
// from html/template, form posts, and a small read-only JSON API.
//
// Handlers parse the request, ask the Guard what the current identity may do,
// call a service, and write the response. They hold no business rules of
// their own; every apperror is translated to a status code or a flash here
// and nowhere else.
package handler

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
)

// UserLookup finds the signed-in user's record for the layout.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// pageFiles are the templates under templates/ that render a full page.
// Each is parsed together with base.html.
var pageFiles = []string{
	"index.html",
	"post.html",
	"make-post.html",
	"register.html",
	"login.html",
	"about.html",
	"contact.html",
	"error.html",
}

// Page is everything a template can see. The layout fields are filled in by
// View.Render; handlers set the rest.
type Page struct {
	Title string

	// Layout.
	LoggedIn      bool
	IsAdmin       bool
	CurrentUser   *model.User
	Flashes       []string
	GitHubEnabled bool
	Year          int

	// Page specific.
	Posts    []model.BlogPost
	Post     *model.BlogPost
	Comments []model.Comment
	Form     *form
	Action   string
	IsEdit   bool
	Status   int
	Message  string
}

// View renders pages. Templates are parsed once at startup and only read
// afterwards, so a View is safe for concurrent use.
type View struct {
	pages         map[string]*template.Template
	flashes       *FlashStore
	users         UserLookup
	guard         auth.Guard
	githubEnabled bool
	logger        *slog.Logger
}

// NewView parses every page template from fsys, which must contain a
// templates/ directory (see package web).
func NewView(fsys fs.FS, flashes *FlashStore, users UserLookup, githubEnabled bool, logger *slog.Logger) (*View, error) {
	funcs := template.FuncMap{
		"gravatar": gravatarURL,
		"safeHTML": safeHTML,
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &View{
		pages:         pages,
		flashes:       flashes,
		users:         users,
		githubEnabled: githubEnabled,
		logger:        logger,
	}, nil
}

// Render executes page name with status. The page is rendered into a buffer
// first so a template error becomes a clean 500 instead of half a page.
func (v *View) Render(w http.ResponseWriter, r *http.Request, status int, name string, p *Page) {
	tmpl, ok := v.pages[name]
	if !ok {
		v.logger.Error("unknown template", slog.String("name", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	v.fillLayout(w, r, p)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", p); err != nil {
		v.logger.Error("failed to render template",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		v.logger.Debug("writing response failed", slog.String("error", err.Error()))
	}
}

func (v *View) fillLayout(w http.ResponseWriter, r *http.Request, p *Page) {
	id := auth.IdentityFromContext(r.Context())
	p.LoggedIn = id.IsAuthenticated()
	p.IsAdmin = v.guard.IsAdmin(id)
	p.GitHubEnabled = v.githubEnabled
	p.Year = time.Now().Year()
	if p.Form == nil {
		p.Form = newForm(nil)
	}

	if p.LoggedIn && p.CurrentUser == nil {
		user, err := v.users.GetUser(r.Context(), id.UserID)
		if err != nil {
			v.logger.Warn("loading current user", slog.String("error", err.Error()))
		} else {
			p.CurrentUser = user
		}
	}

	// Flashes queued for this response (re-rendered forms) come after the
	// ones carried over from the previous redirect.
	p.Flashes = append(v.flashes.Pop(w, r), p.Flashes...)
}

// gravatarURL returns the avatar image URL for email: retro default image,
// G rating, 100px.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	q := url.Values{}
	q.Set("d", "retro")
	q.Set("r", "g")
	q.Set("s", "100")
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?" + q.Encode()
}

// safeHTML marks a post body as trusted markup. Only the admin can write
// post bodies; comments are always escaped.
func safeHTML(s string) template.HTML {
	return template.HTML(s)
}
