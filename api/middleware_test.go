package api_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/garnizeh/innohub/api"
	"github.com/garnizeh/innohub/internal/session"
	"github.com/garnizeh/innohub/pkg/models"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	api.SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { api.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil))) })

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("ok"))
	})

	handler := api.LoggingMiddleware(next)
	req := httptest.NewRequest(http.MethodGet, "/log", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != "ok" {
		t.Fatalf("unexpected body: %q", string(b))
	}
	line := buf.String()
	for _, want := range []string{`"path":"/log"`, `"status":418`, `"duration"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %s missing %s", line, want)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	handler := api.CORSMiddleware(next)

	// OPTIONS should return 204 and not call next
	reqOpt := httptest.NewRequest(http.MethodOptions, "/cors", nil)
	wOpt := httptest.NewRecorder()
	handler.ServeHTTP(wOpt, reqOpt)
	if wOpt.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for OPTIONS, got %d", wOpt.Code)
	}
	if called {
		t.Fatalf("next handler should not run for OPTIONS")
	}
	if wOpt.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing allow-origin header")
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/cors", nil)
	wGet := httptest.NewRecorder()
	handler.ServeHTTP(wGet, reqGet)
	if wGet.Code != http.StatusOK || !called {
		t.Fatalf("expected GET to reach next handler, got %d", wGet.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	api.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := api.RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if doc := decodeView(t, w); doc["view"] != "errors/internal" {
		t.Fatalf("expected internal error view, got %v", doc["view"])
	}
}

func TestGate(t *testing.T) {
	h := newHarness(t)

	t.Run("anonymous student area", func(t *testing.T) {
		b := h.browser()
		w := b.get("/student/programs?level=beginner")
		expectRedirect(t, w, "/login?next="+url.QueryEscape("/student/programs?level=beginner"))
		if !b.hasFlash(session.LevelError, "Iltimos, avval tizimga kiring.") {
			t.Fatalf("expected login flash, got %+v", b.flashes())
		}
	})

	t.Run("anonymous admin area", func(t *testing.T) {
		w := h.browser().get("/dashboard/users")
		if w.Code != http.StatusSeeOther || !strings.HasPrefix(w.Header().Get("Location"), "/login?next=") {
			t.Fatalf("expected login redirect, got %d %q", w.Code, w.Header().Get("Location"))
		}
	})

	t.Run("student in admin area", func(t *testing.T) {
		b, _ := h.signedIn("gate-student", models.RoleStudent)
		w := b.get("/dashboard/")
		expectRedirect(t, w, "/login")
		if !b.hasFlash(session.LevelError, "Sizda ruxsat yo'q!") {
			t.Fatalf("expected forbidden flash, got %+v", b.flashes())
		}
	})

	t.Run("superuser in admin area", func(t *testing.T) {
		b, u := h.signedIn("gate-root", models.RoleStudent)
		u.IsSuperuser = true
		if err := h.repo.Users().Save(context.Background(), u); err != nil {
			t.Fatalf("save: %v", err)
		}
		if w := b.get("/dashboard/"); w.Code != http.StatusOK {
			t.Fatalf("expected 200 for superuser, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("deactivated user loses session", func(t *testing.T) {
		b, u := h.signedIn("gate-blocked", models.RoleStudent)
		if w := b.get("/student/"); w.Code != http.StatusOK {
			t.Fatalf("expected 200 before deactivation, got %d", w.Code)
		}
		u.IsActive = false
		if err := h.repo.Users().Save(context.Background(), u); err != nil {
			t.Fatalf("save: %v", err)
		}
		w := b.get("/student/")
		if w.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect after deactivation, got %d", w.Code)
		}
		if _, ok := b.cookies[session.CookieName]; ok {
			t.Fatalf("session cookie should be cleared")
		}
	})

	t.Run("tampered cookie", func(t *testing.T) {
		b := h.browser()
		b.cookies[session.CookieName] = &http.Cookie{Name: session.CookieName, Value: "not.a.token"}
		if w := b.get("/student/"); w.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect for tampered cookie, got %d", w.Code)
		}
	})
}
