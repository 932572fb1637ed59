package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/blog/internal/apperror"
)

// renderError maps a domain error to an error page.
//
// Domain errors arrive wrapped by the service layer; errors.Is walks the
// chain down to the sentinel:
//
//	fmt.Errorf("adding comment: %w", apperror.NotFound(...)) → ErrNotFound → 404
//
// Anything unrecognised is logged and shown as a generic 500. Raw error text
// can carry SQL or file paths, so it never reaches the page.
func (v *View) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		v.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	v.renderStatus(w, r, status, msg)
}

func (v *View) renderStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	v.Render(w, r, status, "error.html", &Page{
		Title:   http.StatusText(status),
		Status:  status,
		Message: msg,
	})
}

// statusFor returns the HTTP status and the user-facing message for err.
func statusFor(err error) (int, string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "Something went wrong. Please try again later."
	}

	switch {
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, appErr.Message
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "The page you were looking for does not exist."
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, appErr.Message
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, appErr.Message
	case errors.Is(err, apperror.ErrInvalidCredentials):
		return http.StatusUnauthorized, appErr.Message
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again later."
	}
}
