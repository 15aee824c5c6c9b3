package api

import (
	"log/slog"

	"github.com/garnizeh/innohub/internal/auth"
	"github.com/garnizeh/innohub/internal/config"
	"github.com/garnizeh/innohub/internal/db"
	"github.com/garnizeh/innohub/internal/enrollment"
	"github.com/garnizeh/innohub/internal/forms"
	"github.com/garnizeh/innohub/internal/overview"
	"github.com/garnizeh/innohub/internal/repository/sqlite"
	"github.com/garnizeh/innohub/internal/session"
	"github.com/garnizeh/innohub/internal/settings"
	"github.com/garnizeh/innohub/internal/storage"
)

// Services is everything the handlers need, built once per process.
type Services struct {
	Stores     overview.Stores
	Settings   *settings.Service
	Enrollment *enrollment.Service
	Overview   *overview.Service
	Auth       auth.Authenticator
	Sessions   *session.Manager
	Binder     *forms.Binder
	Media      *storage.LocalStore
	Pinger     Pinger
}

// NewServices wires the SQLite repositories and the domain services for cfg.
func NewServices(cfg *config.Config, d *db.DB, log *slog.Logger) *Services {
	repo := sqlite.New(d, log)
	stores := overview.Stores{
		Users:        repo.Users(),
		Laboratories: repo.Laboratories(),
		Programs:     repo.Programs(),
		Events:       repo.Events(),
		Projects:     repo.Projects(),
		Partners:     repo.Partners(),
		Applications: repo.Applications(),
		Certificates: repo.Certificates(),
		News:         repo.News(),
	}
	media := storage.NewLocalStore(cfg.Media.Root, cfg.Media.URLPrefix, cfg.Media.MaxUploadBytes, log)
	siteSettings := settings.NewService(repo.Settings(), log)
	return &Services{
		Stores:     stores,
		Settings:   siteSettings,
		Enrollment: enrollment.NewService(stores.Applications, stores.Programs, log),
		Overview:   overview.NewService(stores, siteSettings),
		Auth:       auth.NewService(stores.Users, log),
		Sessions:   session.NewManager(cfg.SessionSecret, cfg.SessionDuration, cfg.SecureCookies),
		Binder:     forms.NewBinder(media, cfg.Media.MaxUploadBytes, log),
		Media:      media,
		Pinger:     d.GetConn(),
	}
}
