package api_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/garnizeh/innohub/internal/session"
	"github.com/garnizeh/innohub/pkg/models"
)

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.user("admin", models.RoleAdmin)
	student := h.user("aziz", models.RoleStudent)
	student.FirstName, student.LastName = "Aziz", "Karimov"
	if err := h.repo.Users().Save(context.Background(), student); err != nil {
		t.Fatalf("save: %v", err)
	}

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantLoc    string
		wantFlash  string
	}{
		{
			name:       "student goes to student home",
			form:       url.Values{"username": {"aziz"}, "password": {testPassword}},
			wantStatus: http.StatusSeeOther,
			wantLoc:    "/student/",
			wantFlash:  "Xush kelibsiz, Aziz Karimov!",
		},
		{
			name:       "admin goes to dashboard",
			form:       url.Values{"username": {"admin"}, "password": {testPassword}},
			wantStatus: http.StatusSeeOther,
			wantLoc:    "/dashboard/",
			wantFlash:  "Xush kelibsiz, admin!",
		},
		{
			name:       "local next is honored",
			form:       url.Values{"username": {"aziz"}, "password": {testPassword}, "next": {"/student/programs?level=beginner"}},
			wantStatus: http.StatusSeeOther,
			wantLoc:    "/student/programs?level=beginner",
		},
		{
			name:       "foreign next is ignored",
			form:       url.Values{"username": {"aziz"}, "password": {testPassword}, "next": {"//evil.example/x"}},
			wantStatus: http.StatusSeeOther,
			wantLoc:    "/student/",
		},
		{
			name:       "absolute next is ignored",
			form:       url.Values{"username": {"aziz"}, "password": {testPassword}, "next": {"https://evil.example/"}},
			wantStatus: http.StatusSeeOther,
			wantLoc:    "/student/",
		},
		{
			name:       "wrong password",
			form:       url.Values{"username": {"aziz"}, "password": {"nope"}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing fields",
			form:       url.Values{"username": {""}},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := h.browser()
			w := b.post("/login", tc.form)
			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if tc.wantLoc != "" {
				expectRedirect(t, w, tc.wantLoc)
				if _, ok := b.cookies[session.CookieName]; !ok {
					t.Fatalf("expected session cookie")
				}
			}
			if tc.wantFlash != "" && !b.hasFlash(session.LevelSuccess, tc.wantFlash) {
				t.Fatalf("expected flash %q, got %+v", tc.wantFlash, b.flashes())
			}
		})
	}
}

func TestLoginFailureView(t *testing.T) {
	h := newHarness(t)
	h.user("aziz", models.RoleStudent)

	b := h.browser()
	w := b.post("/login", url.Values{"username": {"aziz"}, "password": {"bad"}})
	doc := decodeView(t, w)
	if doc["view"] != "auth/login" {
		t.Fatalf("expected login view, got %v", doc["view"])
	}
	flashes, _ := doc["flashes"].([]any)
	if len(flashes) != 1 || flashes[0].(map[string]any)["message"] != "Login yoki parol xato!" {
		t.Fatalf("expected credentials flash in view, got %v", doc["flashes"])
	}
	if _, ok := b.cookies[session.CookieName]; ok {
		t.Fatalf("failed login must not issue a session")
	}
}

func TestLoginWhenSignedIn(t *testing.T) {
	h := newHarness(t)
	b, _ := h.signedIn("admin", models.RoleAdmin)
	expectRedirect(t, b.get("/login"), "/dashboard/")
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	h.user("taken", models.RoleStudent)

	t.Run("creates a student even when a role is posted", func(t *testing.T) {
		b := h.browser()
		w := b.post("/register", url.Values{
			"username":         {"newbie"},
			"first_name":       {"Nodira"},
			"password":         {"s3cret-pass"},
			"password_confirm": {"s3cret-pass"},
			"role":             {"admin"},
		})
		expectRedirect(t, w, "/student/")
		if !b.hasFlash(session.LevelSuccess, "Ro'yxatdan muvaffaqiyatli o'tdingiz!") {
			t.Fatalf("expected registration flash, got %+v", b.flashes())
		}

		u, err := h.repo.Users().GetByUsername(context.Background(), "newbie")
		if err != nil || u == nil {
			t.Fatalf("expected user to exist: %v", err)
		}
		if u.Role != models.RoleStudent || !u.IsActive {
			t.Fatalf("expected active student, got role=%s active=%v", u.Role, u.IsActive)
		}
		if w := b.get("/student/"); w.Code != http.StatusOK {
			t.Fatalf("expected registered user to be signed in, got %d", w.Code)
		}
	})

	invalid := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"password mismatch", url.Values{"username": {"a1"}, "password": {"x1"}, "password_confirm": {"x2"}}, "password_confirm"},
		{"username taken", url.Values{"username": {"taken"}, "password": {"x1"}, "password_confirm": {"x1"}}, "username"},
		{"username missing", url.Values{"password": {"x1"}, "password_confirm": {"x1"}}, "username"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			w := h.browser().post("/register", tc.form)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
			}
			doc := decodeView(t, w)
			errs, _ := doc["errors"].(map[string]any)
			if _, ok := errs[tc.field]; !ok {
				t.Fatalf("expected error on %s, got %v", tc.field, doc["errors"])
			}
		})
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	b, _ := h.signedIn("aziz", models.RoleStudent)

	expectRedirect(t, b.post("/logout", nil), "/login")
	if _, ok := b.cookies[session.CookieName]; ok {
		t.Fatalf("session cookie should be cleared")
	}
	if !b.hasFlash(session.LevelInfo, "Tizimdan chiqdingiz.") {
		t.Fatalf("expected logout flash, got %+v", b.flashes())
	}
	if w := b.get("/student/"); w.Code != http.StatusSeeOther {
		t.Fatalf("expected login redirect after logout, got %d", w.Code)
	}
}
