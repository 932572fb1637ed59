package handler

import (
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sakif/blog/internal/model"
)

// maxFieldLength matches the VARCHAR(250) columns of the users and blog_posts tables.
const maxFieldLength = 250

// form holds submitted values and per-field errors for re-rendering.
type form struct {
	values url.Values
	errors map[string]string
}

func newForm(values url.Values) *form {
	if values == nil {
		values = url.Values{}
	}
	return &form{values: values, errors: map[string]string{}}
}

// parseForm reads a POSTed form body.
func parseForm(r *http.Request) (*form, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return newForm(r.PostForm), nil
}

// postFormFrom prefills the edit form with a stored post.
func postFormFrom(p *model.BlogPost) *form {
	return newForm(url.Values{
		"title":    {p.Title},
		"subtitle": {p.Subtitle},
		"img_url":  {p.ImgURL},
		"body":     {p.Body},
	})
}

// Get returns the trimmed value of field. Templates call it too.
func (f *form) Get(field string) string {
	if f == nil {
		return ""
	}
	return strings.TrimSpace(f.values.Get(field))
}

// raw returns the value exactly as submitted. Passwords are never trimmed.
func (f *form) raw(field string) string {
	return f.values.Get(field)
}

// Error returns the message recorded for field, or "".
func (f *form) Error(field string) string {
	if f == nil {
		return ""
	}
	return f.errors[field]
}

func (f *form) Valid() bool {
	return len(f.errors) == 0
}

func (f *form) setError(field, msg string) {
	if _, ok := f.errors[field]; !ok {
		f.errors[field] = msg
	}
}

func (f *form) required(fields ...string) {
	for _, field := range fields {
		if f.Get(field) == "" {
			f.setError(field, "This field is required.")
		}
	}
}

func (f *form) maxLength(n int, fields ...string) {
	for _, field := range fields {
		if utf8.RuneCountInString(f.Get(field)) > n {
			f.setError(field, fmt.Sprintf("Must be %d characters or fewer.", n))
		}
	}
}

func (f *form) email(field string) {
	v := f.Get(field)
	if v == "" {
		return
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		f.setError(field, "Enter a valid email address.")
	}
}

func (f *form) httpURL(field string) {
	v := f.Get(field)
	if v == "" {
		return
	}
	u, err := url.ParseRequestURI(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		f.setError(field, "Enter a valid http(s) URL.")
	}
}

func validateRegister(f *form) {
	f.required("email", "password", "name")
	f.email("email")
	f.maxLength(maxFieldLength, "email", "name")
}

func validateLogin(f *form) {
	f.required("email", "password")
}

func validatePost(f *form) {
	f.required("title", "subtitle", "img_url", "body")
	f.maxLength(maxFieldLength, "title", "subtitle", "img_url")
	f.httpURL("img_url")
}

func validateComment(f *form) {
	f.required("comment")
	f.maxLength(maxFieldLength, "comment")
}
