package session

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/garnizeh/innohub/pkg/models"
)

// replay copies the cookies set on w onto a fresh request.
func replay(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		r.AddCookie(c)
	}
	return r
}

func TestIssueRead_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour, false)
	w := httptest.NewRecorder()

	if err := m.Issue(w, &models.User{ID: 7, Role: models.RoleAdmin}); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || !cookies[0].HttpOnly || cookies[0].Name != CookieName {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}

	claims, err := m.Read(replay(w))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if claims.UserID != 7 || claims.Role != models.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRead_Rejects(t *testing.T) {
	issuer := NewManager("secret", time.Hour, false)
	w := httptest.NewRecorder()
	if err := issuer.Issue(w, &models.User{ID: 1, Role: models.RoleStudent}); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name string
		m    *Manager
		req  *http.Request
	}{
		{"no cookie", issuer, httptest.NewRequest(http.MethodGet, "/", nil)},
		{"wrong secret", NewManager("other", time.Hour, false), replay(w)},
		{"expired", &Manager{secret: []byte("secret"), duration: time.Hour, now: func() time.Time { return time.Now().Add(2 * time.Hour) }}, replay(w)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.m.Read(tc.req); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	garbage := httptest.NewRequest(http.MethodGet, "/", nil)
	garbage.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-token"})
	if _, err := issuer.Read(garbage); err == nil {
		t.Fatalf("expected error for garbage token")
	}
}

func TestClear_ExpiresCookie(t *testing.T) {
	m := NewManager("secret", time.Hour, true)
	w := httptest.NewRecorder()
	m.Clear(w)

	c := w.Result().Cookies()
	if len(c) != 1 || c[0].MaxAge >= 0 || c[0].Value != "" || !c[0].Secure {
		t.Fatalf("unexpected clearing cookie: %+v", c)
	}
}

func TestFlashes_AccumulateAndPop(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	AddFlash(w, r, LevelSuccess, "Saqlandi")
	AddFlash(w, r, LevelError, "Xatolik")

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	cookies := w.Result().Cookies()
	next.AddCookie(cookies[len(cookies)-1])

	w2 := httptest.NewRecorder()
	got := PopFlashes(w2, next)
	if len(got) != 2 || got[0].Message != "Saqlandi" || got[1].Level != LevelError {
		t.Fatalf("unexpected flashes: %+v", got)
	}

	cleared := w2.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("expected flash cookie expired, got %+v", cleared)
	}

	if again := PopFlashes(httptest.NewRecorder(), next); again != nil {
		t.Fatalf("expected flashes consumed within the request, got %+v", again)
	}
}

func TestFlashes_KeepsNewest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	// one message per redirect, never rendered
	for i := range 40 {
		w := httptest.NewRecorder()
		AddFlash(w, r, LevelSuccess, fmt.Sprintf("msg %d", i))
		r = replay(w)
	}

	got := PopFlashes(httptest.NewRecorder(), r)
	if len(got) != maxFlashes {
		t.Fatalf("expected %d flashes, got %d", maxFlashes, len(got))
	}
	if got[0].Message != "msg 30" || got[len(got)-1].Message != "msg 39" {
		t.Fatalf("expected the newest messages, got %q..%q", got[0].Message, got[len(got)-1].Message)
	}
}
