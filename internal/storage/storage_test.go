package storage

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// minimal valid PNG header followed by padding
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"), bytes.Repeat([]byte{0}, 64)...)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func newTestStore(t *testing.T, maxBytes int64) *LocalStore {
	t.Helper()
	s := NewLocalStore(t.TempDir(), "/media", maxBytes, nil)
	s.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSave_LayoutAndContent(t *testing.T) {
	s := newTestStore(t, 0)

	rel, err := s.Save(context.Background(), CategoryLabs, "Robot Lab.PNG", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(rel, "labs/2024/03/") || !strings.HasSuffix(rel, ".png") {
		t.Fatalf("unexpected stored path %q", rel)
	}

	got, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(got, pngBytes) {
		t.Fatalf("stored content differs from upload")
	}

	if u := s.URL(rel); u != "/media/"+rel {
		t.Fatalf("unexpected URL %q", u)
	}
	if s.URL("") != "" {
		t.Fatalf("expected empty URL for empty path")
	}
}

func TestSave_UniqueNames(t *testing.T) {
	s := newTestStore(t, 0)
	a, _ := s.Save(context.Background(), CategoryNews, "a.png", bytes.NewReader(pngBytes))
	b, _ := s.Save(context.Background(), CategoryNews, "a.png", bytes.NewReader(pngBytes))
	if a == "" || a == b {
		t.Fatalf("expected two distinct paths, got %q and %q", a, b)
	}
}

func TestSave_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		category string
		file     string
		data     []byte
		max      int64
		want     error
	}{
		{"unknown category", "secrets", "a.png", pngBytes, 0, ErrUnknownCategory},
		{"text as image", CategoryAvatars, "a.png", []byte("hello world"), 0, ErrUnsupportedType},
		{"image as certificate", CategoryCertificates, "c.pdf", pngBytes, 0, ErrUnsupportedType},
		{"too large", CategoryEvents, "e.png", pngBytes, 16, ErrTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(t, tc.max)
			_, err := s.Save(context.Background(), tc.category, tc.file, bytes.NewReader(tc.data))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsClientError(err) {
				t.Fatalf("expected client error classification for %v", err)
			}
		})
	}
}

func TestSave_CertificatePDF(t *testing.T) {
	s := newTestStore(t, 0)
	rel, err := s.Save(context.Background(), CategoryCertificates, "cert", bytes.NewReader(pdfBytes))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(rel, ".pdf") {
		t.Fatalf("expected extension from sniffed type, got %q", rel)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()
	rel, err := s.Save(ctx, CategoryAvatars, "a.png", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Delete(ctx, rel); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file to be gone, stat err %v", err)
	}
	if err := s.Delete(ctx, rel); err != nil {
		t.Fatalf("deleting a missing file: %v", err)
	}

	for _, bad := range []string{"", ".", "../outside.png", "avatars/../../x"} {
		if err := s.Delete(ctx, bad); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("%q: expected ErrInvalidPath, got %v", bad, err)
		}
	}
}

func TestHandler_ServesFilesOnly(t *testing.T) {
	s := newTestStore(t, 0)
	rel, err := s.Save(context.Background(), CategoryPartners, "logo.png", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	h := s.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, s.URL(rel), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for stored file, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/partners/", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for directory, got %d", w.Code)
	}
}
