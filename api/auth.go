package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/garnizeh/innohub/internal/auth"
	"github.com/garnizeh/innohub/internal/forms"
	"github.com/garnizeh/innohub/internal/session"
	"github.com/garnizeh/innohub/internal/web"
	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
	"github.com/garnizeh/innohub/pkg/repository"
)

const (
	dashboardHome = "/dashboard/"
	studentHome   = "/student/"
)

type AuthHandler struct {
	auth     auth.Authenticator
	users    repository.UserRepo
	sessions *session.Manager
	binder   *forms.Binder
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(a auth.Authenticator, users repository.UserRepo, sessions *session.Manager, binder *forms.Binder) *AuthHandler {
	return &AuthHandler{auth: a, users: users, sessions: sessions, binder: binder}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if u := currentUser(r); u != nil {
		web.Redirect(w, r, homeOf(u), "", "")
		return
	}
	if r.Method != http.MethodPost {
		form := &forms.LoginForm{Next: r.URL.Query().Get("next")}
		web.View(w, r, http.StatusOK, "auth/login", web.Map{"form": form})
		return
	}

	form := &forms.LoginForm{}
	if err := h.binder.Bind(r, form); err != nil {
		if ve, ok := apperr.IsValidation(err); ok {
			web.Invalid(w, r, "auth/login", ve, web.Map{"form": form})
			return
		}
		web.Fail(w, r, err, web.LoginURL)
		return
	}

	u, err := h.auth.Authenticate(r.Context(), form.Username, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		session.AddFlash(w, r, session.LevelError, "Login yoki parol xato!")
		web.View(w, r, http.StatusUnprocessableEntity, "auth/login", web.Map{"form": form})
		return
	}
	if err != nil {
		web.Fail(w, r, err, web.LoginURL)
		return
	}

	if err := h.sessions.Issue(w, u); err != nil {
		web.Fail(w, r, err, web.LoginURL)
		return
	}
	logger.Info("user signed in", slog.Int64("user_id", u.ID), slog.String("role", string(u.Role)))

	target := homeOf(u)
	if next, ok := safeNext(form.Next); ok {
		target = next
	}
	web.Redirect(w, r, target, session.LevelSuccess, "Xush kelibsiz, "+u.DisplayName()+"!")
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if u := currentUser(r); u != nil {
		web.Redirect(w, r, homeOf(u), "", "")
		return
	}
	form := forms.NewRegisterForm(h.users)
	if r.Method != http.MethodPost {
		web.View(w, r, http.StatusOK, "auth/register", web.Map{"form": form})
		return
	}

	u := &models.User{}
	err := h.binder.Bind(r, form)
	if err == nil {
		err = form.Clean(r.Context(), u)
	}
	if err == nil {
		err = h.users.Save(r.Context(), u)
	}
	if err == nil {
		err = h.sessions.Issue(w, u)
	}
	if err != nil {
		if ve, ok := apperr.IsValidation(err); ok {
			web.Invalid(w, r, "auth/register", ve, web.Map{"form": form})
			return
		}
		web.Fail(w, r, err, "/register")
		return
	}

	logger.Info("student registered", slog.Int64("user_id", u.ID))
	web.Redirect(w, r, studentHome, session.LevelSuccess, "Ro'yxatdan muvaffaqiyatli o'tdingiz!")
}

// Logout drops the session cookie. Tokens are not tracked server-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	web.Redirect(w, r, web.LoginURL, session.LevelInfo, "Tizimdan chiqdingiz.")
}

func homeOf(u *models.User) string {
	if u.IsAdmin() {
		return dashboardHome
	}
	return studentHome
}

// safeNext accepts only local absolute paths so the login form cannot be
// used as an open redirect.
func safeNext(next string) (string, bool) {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "", false
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	return next, true
}
