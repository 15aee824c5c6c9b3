// Package storage keeps uploaded media on the local filesystem.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Upload categories. Each one is a top-level directory under the media root.
const (
	CategoryAvatars      = "avatars"
	CategoryLabs         = "labs"
	CategoryPrograms     = "programs"
	CategoryEvents       = "events"
	CategoryProjects     = "projects"
	CategoryPartners     = "partners"
	CategoryCertificates = "certificates"
	CategoryNews         = "news"
	CategorySettings     = "settings"
)

var (
	ErrUnknownCategory = errors.New("unknown upload category")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

// accepts reports whether a sniffed MIME type is allowed in a category.
var categories = map[string]func(m *mimetype.MIME) bool{
	CategoryAvatars:      isImage,
	CategoryLabs:         isImage,
	CategoryPrograms:     isImage,
	CategoryEvents:       isImage,
	CategoryProjects:     isImage,
	CategoryPartners:     isImage,
	CategoryNews:         isImage,
	CategorySettings:     isImage,
	CategoryCertificates: func(m *mimetype.MIME) bool { return m.Is("application/pdf") },
}

func isImage(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}

// Store is the file store used by form binding.
type Store interface {
	// Save writes r under category and returns the stored path relative to the media root.
	Save(ctx context.Context, category, filename string, r io.Reader) (string, error)
	// Delete removes a stored path. Missing files are not an error.
	Delete(ctx context.Context, stored string) error
	// URL maps a stored path to its public URL.
	URL(stored string) string
}

type LocalStore struct {
	root     string
	prefix   string
	maxBytes int64
	logger   *slog.Logger
	now      func() time.Time
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore stores files under root and serves them below urlPrefix.
// maxBytes <= 0 disables the size limit.
func NewLocalStore(root, urlPrefix string, maxBytes int64, logger *slog.Logger) *LocalStore {
	if logger == nil {
		logger = slog.Default()
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStore{root: root, prefix: urlPrefix, maxBytes: maxBytes, logger: logger, now: time.Now}
}

func (s *LocalStore) Save(ctx context.Context, category, filename string, r io.Reader) (string, error) {
	accept, ok := categories[category]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// keep the sniffed header so the full content can still be written
	var head bytes.Buffer
	mt, err := mimetype.DetectReader(io.TeeReader(r, &head))
	if err != nil {
		return "", fmt.Errorf("detect type of %s: %w", filename, err)
	}
	if !accept(mt) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = mt.Extension()
	}

	t := s.now().UTC()
	rel := path.Join(category, t.Format("2006"), t.Format("01"), uuid.New().String()+ext)
	dst := filepath.Join(s.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	src := io.MultiReader(&head, r)
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write upload %s: %w", filename, err)
	}

	s.logger.Info("file stored", slog.String("category", category), slog.String("path", rel), slog.Int64("bytes", n), slog.String("type", mt.String()))
	return rel, nil
}

var ErrInvalidPath = errors.New("invalid stored path")

func (s *LocalStore) Delete(ctx context.Context, stored string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel := path.Clean(strings.TrimPrefix(stored, "/"))
	if stored == "" || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, stored)
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete upload %s: %w", rel, err)
	}
	s.logger.Info("file deleted", slog.String("path", rel))
	return nil
}

func (s *LocalStore) URL(stored string) string {
	if stored == "" {
		return ""
	}
	return s.prefix + strings.TrimPrefix(stored, "/")
}

// Prefix is the URL path media is served under.
func (s *LocalStore) Prefix() string {
	return s.prefix
}

// Handler serves stored files below Prefix. Directory listings are refused.
func (s *LocalStore) Handler() http.Handler {
	fs := http.FileServer(http.Dir(s.root))
	return http.StripPrefix(s.prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	}))
}

// IsClientError reports whether err was caused by the uploaded content
// rather than the filesystem.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrTooLarge) || errors.Is(err, ErrUnknownCategory)
}
