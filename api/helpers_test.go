package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/innohub/api"
	"github.com/garnizeh/innohub/internal/auth"
	"github.com/garnizeh/innohub/internal/config"
	"github.com/garnizeh/innohub/internal/repository/sqlite"
	"github.com/garnizeh/innohub/internal/session"
	"github.com/garnizeh/innohub/internal/testutil"
	"github.com/garnizeh/innohub/pkg/models"
)

const testPassword = "student123"

// harness is a router over a fresh database.
type harness struct {
	t      *testing.T
	repo   *sqlite.SQLiteRepo
	router http.Handler
	media  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	d := testutil.NewDB(t)
	media := t.TempDir()
	cfg := &config.Config{
		Env:             "test",
		SessionSecret:   "test-secret",
		SessionDuration: time.Hour,
		Media: config.MediaConfig{
			Root:           media,
			URLPrefix:      "/media/",
			MaxUploadBytes: 1 << 20,
		},
	}
	svc := api.NewServices(cfg, d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return &harness{t: t, repo: testutil.NewRepoOn(d), router: api.NewRouter(svc, "test", "now"), media: media}
}

func (h *harness) user(username string, role models.Role) *models.User {
	h.t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		h.t.Fatalf("HashPassword: %v", err)
	}
	u := &models.User{Username: username, PasswordHash: hash, Role: role, IsActive: true}
	if err := h.repo.Users().Save(context.Background(), u); err != nil {
		h.t.Fatalf("save user %s: %v", username, err)
	}
	return u
}

// browser keeps cookies between requests like a real client.
type browser struct {
	h       *harness
	cookies map[string]*http.Cookie
}

func (h *harness) browser() *browser {
	return &browser{h: h, cookies: map[string]*http.Cookie{}}
}

// signedIn returns a browser logged in as a new user.
func (h *harness) signedIn(username string, role models.Role) (*browser, *models.User) {
	h.t.Helper()
	u := h.user(username, role)
	b := h.browser()
	res := b.post("/login", url.Values{"username": {username}, "password": {testPassword}})
	if res.Code != http.StatusSeeOther {
		h.t.Fatalf("login %s: expected 303, got %d: %s", username, res.Code, res.Body.String())
	}
	return b, u
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.h.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// postFile sends form as multipart with one file attached under field.
func (b *browser) postFile(path string, form url.Values, field, filename string, content []byte) *httptest.ResponseRecorder {
	b.h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range form {
		for _, v := range vs {
			if err := mw.WriteField(k, v); err != nil {
				b.h.t.Fatalf("write field: %v", err)
			}
		}
	}
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		b.h.t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		b.h.t.Fatalf("write file: %v", err)
	}
	if err := mw.Close(); err != nil {
		b.h.t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.do(req)
}

// mediaFiles lists the files under the media root.
func (h *harness) mediaFiles() []string {
	h.t.Helper()
	var files []string
	err := filepath.WalkDir(h.media, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		h.t.Fatalf("walk media: %v", err)
	}
	return files
}

// flashes decodes the pending flash cookie without consuming it.
func (b *browser) flashes() []session.Flash {
	c, ok := b.cookies[session.FlashName]
	if !ok {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var out []session.Flash
	_ = json.Unmarshal(raw, &out)
	return out
}

func (b *browser) hasFlash(level, msg string) bool {
	for _, f := range b.flashes() {
		if f.Level == level && f.Message == msg {
			return true
		}
	}
	return false
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode view: %v: %s", err, w.Body.String())
	}
	return doc
}

func expectRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}
