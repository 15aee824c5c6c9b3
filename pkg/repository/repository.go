package repository

import (
	"context"

	"github.com/garnizeh/innohub/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Get methods return (nil, nil) when the row does not exist. Save inserts when
// the record ID is zero and updates in place otherwise.

type Store[T any] interface {
	List(ctx context.Context, f models.Filter) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	Save(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id int64) error
}

type Counter interface {
	Count(ctx context.Context, f models.Filter) (int64, error)
}

// ActiveToggler flips is_active and returns the new value.
type ActiveToggler interface {
	ToggleActive(ctx context.Context, id int64) (bool, error)
}

type UserRepo interface {
	Store[models.User]
	Counter
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type LaboratoryRepo interface {
	Store[models.Laboratory]
	Counter
	ActiveToggler
	GetByName(ctx context.Context, name string) (*models.Laboratory, error)
}

type ProgramRepo interface {
	Store[models.Program]
	Counter
	ActiveToggler
	GetByName(ctx context.Context, name string) (*models.Program, error)
}

type EventRepo interface {
	Store[models.Event]
	Counter
	ActiveToggler
	GetByTitle(ctx context.Context, title string) (*models.Event, error)
}

type ProjectRepo interface {
	Store[models.Project]
	Counter
	ActiveToggler
	GetByTitle(ctx context.Context, title string) (*models.Project, error)
	ToggleApproved(ctx context.Context, id int64) (bool, error)
}

type PartnerRepo interface {
	Store[models.Partner]
	Counter
	ActiveToggler
	GetByName(ctx context.Context, name string) (*models.Partner, error)
}

type ApplicationRepo interface {
	Store[models.Application]
	Counter
	// CreateIfAbsent inserts a unless the same user already applied to the
	// same program. It reports whether a row was created.
	CreateIfAbsent(ctx context.Context, a *models.Application) (bool, error)
	Exists(ctx context.Context, userID, programID int64) (bool, error)
	SetStatus(ctx context.Context, id int64, status models.ApplicationStatus) error
}

type CertificateRepo interface {
	Store[models.Certificate]
	Counter
	GetByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error)
}

type NewsRepo interface {
	Store[models.News]
	Counter
	GetBySlug(ctx context.Context, slug string) (*models.News, error)
}

type SettingsRepo interface {
	// GetOrCreate returns the singleton row, inserting defaults when it is missing.
	GetOrCreate(ctx context.Context, defaults models.SiteSettings) (*models.SiteSettings, error)
	Update(ctx context.Context, s *models.SiteSettings) error
}
