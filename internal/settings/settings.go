// Package settings serves the site-wide settings record. There is exactly one
// row; it is created with default values on first read.
package settings

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/garnizeh/innohub/pkg/models"
	"github.com/garnizeh/innohub/pkg/repository"
)

type Service struct {
	repo     repository.SettingsRepo
	defaults models.SiteSettings
	group    singleflight.Group
	logger   *slog.Logger
}

func NewService(repo repository.SettingsRepo, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, defaults: models.DefaultSiteSettings(), logger: logger}
}

// Get returns the settings row, creating it first if needed. Concurrent
// callers share one read. Each caller gets its own copy.
func (s *Service) Get(ctx context.Context) (*models.SiteSettings, error) {
	// the shared read outlives the caller that started it
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan("settings", func() (any, error) {
		return s.repo.GetOrCreate(shared, s.defaults)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("load site settings: %w", ctx.Err())
	}
	if res.Err != nil {
		return nil, fmt.Errorf("load site settings: %w", res.Err)
	}
	if res.Shared {
		s.logger.Debug("site settings read shared")
	}
	st := *res.Val.(*models.SiteSettings)
	return &st, nil
}

// Save writes st to the singleton row whatever st.ID holds.
func (s *Service) Save(ctx context.Context, st *models.SiteSettings) error {
	if err := s.repo.Update(ctx, st); err != nil {
		return fmt.Errorf("save site settings: %w", err)
	}
	s.logger.Info("site settings saved")
	return nil
}
