package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

const flashSessionName = "flash"

// FlashStore carries one-shot messages across a redirect in a signed cookie.
type FlashStore struct {
	store  *sessions.CookieStore
	logger *slog.Logger
}

// NewFlashStore signs the flash cookie with secret.
func NewFlashStore(secret string, secure bool, logger *slog.Logger) *FlashStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 10,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
	return &FlashStore{store: store, logger: logger}
}

// Add queues msg for the next page render. It must be called before
// anything is written to w.
func (f *FlashStore) Add(w http.ResponseWriter, r *http.Request, msg string) {
	// A tampered or stale cookie yields a fresh session plus an error.
	sess, _ := f.store.Get(r, flashSessionName)
	sess.AddFlash(msg)
	if err := sess.Save(r, w); err != nil {
		f.logger.Warn("saving flash", slog.String("error", err.Error()))
	}
}

// Pop returns and clears the queued messages.
func (f *FlashStore) Pop(w http.ResponseWriter, r *http.Request) []string {
	sess, _ := f.store.Get(r, flashSessionName)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		f.logger.Warn("clearing flashes", slog.String("error", err.Error()))
	}

	msgs := make([]string, 0, len(raw))
	for _, m := range raw {
		if s, ok := m.(string); ok {
			msgs = append(msgs, s)
		}
	}
	return msgs
}

// redirectWithFlash is the common "tell the user and send them elsewhere"
// response.
func (v *View) redirectWithFlash(w http.ResponseWriter, r *http.Request, msg, to string) {
	v.flashes.Add(w, r, msg)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
