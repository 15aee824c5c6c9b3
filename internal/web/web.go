// Package web writes the JSON view documents, flash redirects and error
// responses shared by every handler.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/garnizeh/innohub/internal/session"
	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

// LoginURL is where denied requests are sent.
const LoginURL = "/login"

// Map is the payload of a view.
type Map = map[string]any

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger installs a logger for the web package. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

type ctxKey string

const ctxUser ctxKey = "user"

// WithUser stores the authenticated user on ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxUser).(*models.User)
	return u
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("err", err))
	}
}

// View renders the named view. Pending flash messages and the current user
// are attached to every view.
func View(w http.ResponseWriter, r *http.Request, status int, name string, data Map) {
	doc := make(Map, len(data)+3)
	for k, v := range data {
		doc[k] = v
	}
	doc["view"] = name
	if flashes := session.PopFlashes(w, r); len(flashes) > 0 {
		doc["flashes"] = flashes
	}
	if u := UserFrom(r.Context()); u != nil {
		doc["user"] = u
	}
	JSON(w, doc, status)
}

// Redirect queues an optional flash message and answers 303 See Other.
func Redirect(w http.ResponseWriter, r *http.Request, target, level, msg string) {
	if msg != "" {
		session.AddFlash(w, r, level, msg)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Invalid re-renders a form view with its submitted values and field errors.
func Invalid(w http.ResponseWriter, r *http.Request, name string, ve *apperr.ValidationError, data Map) {
	if data == nil {
		data = Map{}
	}
	data["errors"] = ve.Fields
	View(w, r, http.StatusUnprocessableEntity, name, data)
}

// NotFound renders the generic not-found view.
func NotFound(w http.ResponseWriter, r *http.Request) {
	View(w, r, http.StatusNotFound, "errors/not_found", Map{"path": r.URL.Path})
}

// LoginRedirect sends an anonymous request to the login page, remembering
// where it was going.
func LoginRedirect(w http.ResponseWriter, r *http.Request) {
	target := LoginURL + "?next=" + url.QueryEscape(r.URL.RequestURI())
	Redirect(w, r, target, session.LevelError, "Iltimos, avval tizimga kiring.")
}

// Fail maps err onto a response. Precondition failures go back to fallback
// with the error message as a flash.
func Fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if ve, ok := apperr.IsValidation(err); ok {
		View(w, r, http.StatusUnprocessableEntity, "errors/validation", Map{"errors": ve.Fields})
		return
	}
	if pe, ok := apperr.IsPrecondition(err); ok {
		Redirect(w, r, fallback, session.LevelError, pe.Message)
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		NotFound(w, r)
	case errors.Is(err, apperr.ErrUnauthenticated):
		LoginRedirect(w, r)
	case errors.Is(err, apperr.ErrForbidden):
		Redirect(w, r, LoginURL, session.LevelError, "Sizda ruxsat yo'q!")
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		View(w, r, http.StatusInternalServerError, "errors/internal", nil)
	}
}

// PathID parses a positive integer path value.
func PathID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
