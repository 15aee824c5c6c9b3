package api

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/garnizeh/innohub/internal/session"
	"github.com/garnizeh/innohub/internal/web"
	"github.com/garnizeh/innohub/pkg/models"
	"github.com/garnizeh/innohub/pkg/repository"
)

// package-level logger used by middleware and handlers; can be set via SetLogger from caller
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger installs a logger for the api package and the view helpers it
// renders through. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
		web.SetLogger(l)
	}
}

// statusRecorder remembers the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic", slog.Any("err", err), slog.String("path", r.URL.Path))
				web.View(w, r, http.StatusInternalServerError, "errors/internal", nil)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// Gate resolves the session cookie to a user and enforces the console roles.
// The user row is reloaded on every request, so deleting or deactivating an
// account ends its sessions.
type Gate struct {
	sessions *session.Manager
	users    repository.UserRepo
}

func NewGate(sessions *session.Manager, users repository.UserRepo) *Gate {
	return &Gate{sessions: sessions, users: users}
}

// Identify attaches the session user to the request context when there is
// one. Anonymous requests pass through untouched.
func (g *Gate) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) != nil {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := g.sessions.Read(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		u, err := g.users.Get(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("failed to load session user", slog.Int64("user_id", claims.UserID), slog.Any("err", err))
			web.View(w, r, http.StatusInternalServerError, "errors/internal", nil)
			return
		}
		if u == nil || !u.IsActive {
			g.sessions.Clear(w)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(web.WithUser(r.Context(), u)))
	})
}

// RequireLogin sends anonymous requests to the login page.
func (g *Gate) RequireLogin(next http.Handler) http.Handler {
	return g.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if web.UserFrom(r.Context()) == nil {
			web.LoginRedirect(w, r)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireAdmin additionally refuses users that are neither admins nor
// superusers.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return g.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !web.UserFrom(r.Context()).IsAdmin() {
			logger.Info("admin area refused", slog.String("path", r.URL.Path))
			web.Redirect(w, r, web.LoginURL, session.LevelError, "Sizda ruxsat yo'q!")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func currentUser(r *http.Request) *models.User {
	return web.UserFrom(r.Context())
}
