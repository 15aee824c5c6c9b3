// Package enrollment runs the program application workflow: students apply
// and may cancel while pending, admins move applications between statuses.
package enrollment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
	"github.com/garnizeh/innohub/pkg/repository"
)

var (
	ErrAlreadyApplied = apperr.Precondition("Siz bu dasturga allaqachon ariza topshirgansiz!")
	ErrNotPending     = apperr.Precondition("Faqat kutilmoqda holatidagi arizalarni bekor qilish mumkin!")
)

type Service struct {
	apps     repository.ApplicationRepo
	programs repository.ProgramRepo
	logger   *slog.Logger
}

func NewService(apps repository.ApplicationRepo, programs repository.ProgramRepo, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{apps: apps, programs: programs, logger: logger}
}

// Apply files a pending application of user to an active program. The first
// application for a (user, program) pair wins; later ones fail with
// ErrAlreadyApplied and change nothing.
func (s *Service) Apply(ctx context.Context, user *models.User, programID int64, message string) (*models.Application, error) {
	p, err := s.programs.Get(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("lookup program %d: %w", programID, err)
	}
	if p == nil || !p.IsActive {
		return nil, apperr.ErrNotFound
	}

	a := &models.Application{UserID: user.ID, ProgramID: p.ID, Status: models.StatusPending, Message: message}
	created, err := s.apps.CreateIfAbsent(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	if !created {
		return nil, ErrAlreadyApplied
	}

	s.logger.Info("application created",
		slog.Int64("application_id", a.ID),
		slog.Int64("user_id", user.ID),
		slog.Int64("program_id", p.ID),
	)
	return a, nil
}

// HasApplied reports whether user already has an application for programID.
func (s *Service) HasApplied(ctx context.Context, user *models.User, programID int64) (bool, error) {
	if user == nil {
		return false, nil
	}
	ok, err := s.apps.Exists(ctx, user.ID, programID)
	if err != nil {
		return false, fmt.Errorf("check application: %w", err)
	}
	return ok, nil
}

// Cancel withdraws the user's own pending application. Applications of other
// users are not found; decided ones fail with ErrNotPending.
func (s *Service) Cancel(ctx context.Context, user *models.User, appID int64) error {
	a, err := s.apps.Get(ctx, appID)
	if err != nil {
		return fmt.Errorf("lookup application %d: %w", appID, err)
	}
	if a == nil || a.UserID != user.ID {
		return apperr.ErrNotFound
	}
	if a.Status != models.StatusPending {
		return ErrNotPending
	}
	if err := s.apps.Delete(ctx, a.ID); err != nil {
		return fmt.Errorf("delete application %d: %w", a.ID, err)
	}

	s.logger.Info("application cancelled", slog.Int64("application_id", a.ID), slog.Int64("user_id", user.ID))
	return nil
}

// SetStatus moves an application to any of the known statuses, whatever its
// current one is.
func (s *Service) SetStatus(ctx context.Context, appID int64, status models.ApplicationStatus) error {
	if !status.Valid() {
		ve := apperr.NewValidationError()
		ve.Add("status", "select a valid choice")
		return ve
	}
	if err := s.apps.SetStatus(ctx, appID, status); err != nil {
		return fmt.Errorf("set application %d status: %w", appID, err)
	}

	s.logger.Info("application status set", slog.Int64("application_id", appID), slog.String("status", string(status)))
	return nil
}
