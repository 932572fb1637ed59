package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/service"
)

const oauthStateCookie = "oauth_state"

// AuthHandler manages registration, password login, logout and the optional
// GitHub sign-in.
//
// Authenticating is the service's job; turning a user into a browser session
// is the SessionManager's. This handler only moves cookies between them.
type AuthHandler struct {
	view         *View
	users        *service.AuthService
	sessions     *auth.SessionManager
	github       *auth.GitHubProvider // nil when GitHub sign-in is not configured
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(
	view *View,
	users *service.AuthService,
	sessions *auth.SessionManager,
	github *auth.GitHubProvider,
	cookieSecure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		view:         view,
		users:        users,
		sessions:     sessions,
		github:       github,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// HTTP: GET /register
func (h *AuthHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, "register.html", &Page{Title: "Register"})
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /register
//
// An email that is already registered is not an error page: the visitor is
// sent to /login with a flash.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(r)
	if err != nil {
		h.view.renderError(w, r, apperror.ValidationFailed("form", "malformed form body"))
		return
	}
	validateRegister(f)
	if !f.Valid() {
		h.view.Render(w, r, http.StatusUnprocessableEntity, "register.html", &Page{Title: "Register", Form: f})
		return
	}

	user, err := h.users.Register(r.Context(), f.Get("name"), f.Get("email"), f.raw("password"))
	switch {
	case errors.Is(err, apperror.ErrAlreadyRegistered):
		h.view.redirectWithFlash(w, r, err.Error(), "/login")
		return
	case errors.Is(err, apperror.ErrValidation):
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			f.setError(appErr.Field, appErr.Message)
		}
		h.view.Render(w, r, http.StatusUnprocessableEntity, "register.html", &Page{Title: "Register", Form: f})
		return
	case err != nil:
		h.view.renderError(w, r, err)
		return
	}

	h.startSession(w, r, user)
}

// HTTP: GET /login
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, "login.html", &Page{Title: "Log In"})
}

// HandleLogin checks the credentials and logs the user in.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(r)
	if err != nil {
		h.view.renderError(w, r, apperror.ValidationFailed("form", "malformed form body"))
		return
	}
	validateLogin(f)
	if !f.Valid() {
		h.view.Render(w, r, http.StatusUnprocessableEntity, "login.html", &Page{Title: "Log In", Form: f})
		return
	}

	user, err := h.users.Authenticate(r.Context(), f.Get("email"), f.raw("password"))
	if errors.Is(err, apperror.ErrInvalidCredentials) {
		h.view.redirectWithFlash(w, r, err.Error(), "/login")
		return
	}
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}

	h.startSession(w, r, user)
}

// HandleLogout ends the session and clears the cookie.
//
// HTTP: GET /logout
//
// The session row is deleted, so a copy of the token kept elsewhere stops
// working too.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
	}
	auth.ClearTokenCookie(w, h.cookieSecure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleGitHubLogin redirects the browser to GitHub's consent page.
//
// HTTP: GET /auth/github/login
//
// The random state is stored in a short-lived cookie and checked on the
// callback, so only a flow started here can complete a login.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the GitHub sign-in.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		h.view.renderError(w, r, apperror.ValidationFailed("state", "Invalid sign-in attempt. Please try again."))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		h.view.redirectWithFlash(w, r, "GitHub sign-in was cancelled.", "/login")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.view.renderError(w, r, apperror.ValidationFailed("code", "Missing authorization code."))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		h.view.redirectWithFlash(w, r, "GitHub sign-in failed. Please try again.", "/login")
		return
	}

	user, err := h.users.LoginWithGitHub(r.Context(), ghUser)
	if errors.Is(err, apperror.ErrValidation) {
		h.view.redirectWithFlash(w, r, err.Error(), "/register")
		return
	}
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}

	h.startSession(w, r, user)
}

// startSession replaces whatever identity the browser had with user and sends
// it to the home page.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User) {
	token, err := h.sessions.Login(r.Context(), user.ID)
	if err != nil {
		h.view.renderError(w, r, err)
		return
	}
	auth.SetTokenCookie(w, token, h.sessions.TTL(), h.cookieSecure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
