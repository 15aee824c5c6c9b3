// Package overview assembles the read-only landing page and dashboard
// summaries. Nothing is cached; every call queries the stores.
package overview

import (
	"context"
	"fmt"
	"time"

	"github.com/garnizeh/innohub/pkg/models"
	"github.com/garnizeh/innohub/pkg/repository"
)

// Limits of the landing page sections.
const (
	landingLabs     = 6
	landingPrograms = 6
	landingEvents   = 4
	landingProjects = 6
	landingNews     = 3

	dashboardRecent = 5

	studentApplications = 5
	studentCertificates = 5
	studentEvents       = 4
	studentPrograms     = 4
	studentNews         = 3
	studentProjects     = 3
)

// Stores are the repositories the summaries read from.
type Stores struct {
	Users        repository.UserRepo
	Laboratories repository.LaboratoryRepo
	Programs     repository.ProgramRepo
	Events       repository.EventRepo
	Projects     repository.ProjectRepo
	Partners     repository.PartnerRepo
	Applications repository.ApplicationRepo
	Certificates repository.CertificateRepo
	News         repository.NewsRepo
}

// SettingsSource provides the site settings row.
type SettingsSource interface {
	Get(ctx context.Context) (*models.SiteSettings, error)
}

type Service struct {
	stores   Stores
	settings SettingsSource
}

func NewService(stores Stores, settings SettingsSource) *Service {
	return &Service{stores: stores, settings: settings}
}

type Landing struct {
	Settings      *models.SiteSettings `json:"settings"`
	Laboratories  []models.Laboratory  `json:"laboratories"`
	Programs      []models.Program     `json:"programs"`
	Events        []models.Event       `json:"events"`
	Projects      []models.Project     `json:"projects"`
	Partners      []models.Partner     `json:"partners"`
	News          []models.News        `json:"news"`
	LabsCount     int64                `json:"labs_count"`
	ProgramsCount int64                `json:"programs_count"`
	ProjectsCount int64                `json:"projects_count"`
}

// Landing collects the public front page: active records only, upcoming
// events from now on, published news.
func (s *Service) Landing(ctx context.Context, now time.Time) (*Landing, error) {
	var (
		out Landing
		err error
	)
	if out.Settings, err = s.settings.Get(ctx); err != nil {
		return nil, err
	}

	active := models.Filter{ActiveOnly: true}
	if out.Laboratories, err = list[models.Laboratory](ctx, s.stores.Laboratories, "laboratories", limit(active, landingLabs)); err != nil {
		return nil, err
	}
	if out.Programs, err = list[models.Program](ctx, s.stores.Programs, "programs", limit(active, landingPrograms)); err != nil {
		return nil, err
	}
	if out.Events, err = s.upcoming(ctx, now, landingEvents); err != nil {
		return nil, err
	}
	approved := models.Filter{ActiveOnly: true, ApprovedOnly: true}
	if out.Projects, err = list[models.Project](ctx, s.stores.Projects, "projects", limit(approved, landingProjects)); err != nil {
		return nil, err
	}
	if out.Partners, err = list[models.Partner](ctx, s.stores.Partners, "partners", active); err != nil {
		return nil, err
	}
	if out.News, err = s.latestNews(ctx, landingNews); err != nil {
		return nil, err
	}

	if out.LabsCount, err = count(ctx, s.stores.Laboratories, "laboratories", active); err != nil {
		return nil, err
	}
	if out.ProgramsCount, err = count(ctx, s.stores.Programs, "programs", active); err != nil {
		return nil, err
	}
	if out.ProjectsCount, err = count(ctx, s.stores.Projects, "projects", approved); err != nil {
		return nil, err
	}
	return &out, nil
}

type Totals struct {
	Users        int64 `json:"users"`
	Students     int64 `json:"students"`
	Laboratories int64 `json:"laboratories"`
	Programs     int64 `json:"programs"`
	Events       int64 `json:"events"`
	Projects     int64 `json:"projects"`
	Applications int64 `json:"applications"`
	Pending      int64 `json:"pending_applications"`
	Certificates int64 `json:"certificates"`
	News         int64 `json:"news"`
}

type Admin struct {
	Totals             Totals               `json:"totals"`
	RecentApplications []models.Application `json:"recent_applications"`
	RecentNews         []models.News        `json:"recent_news"`
	UpcomingEvents     []models.Event       `json:"upcoming_events"`
}

// Admin collects the totals and recent activity for the admin dashboard.
func (s *Service) Admin(ctx context.Context, now time.Time) (*Admin, error) {
	var (
		out Admin
		err error
	)
	t := &out.Totals
	all := models.Filter{}
	counts := []struct {
		dst  *int64
		c    repository.Counter
		name string
		f    models.Filter
	}{
		{&t.Users, s.stores.Users, "users", all},
		{&t.Students, s.stores.Users, "students", models.Filter{Role: models.RoleStudent}},
		{&t.Laboratories, s.stores.Laboratories, "laboratories", all},
		{&t.Programs, s.stores.Programs, "programs", all},
		{&t.Events, s.stores.Events, "events", all},
		{&t.Projects, s.stores.Projects, "projects", all},
		{&t.Applications, s.stores.Applications, "applications", all},
		{&t.Pending, s.stores.Applications, "pending applications", models.Filter{Status: models.StatusPending}},
		{&t.Certificates, s.stores.Certificates, "certificates", all},
		{&t.News, s.stores.News, "news", all},
	}
	for _, c := range counts {
		if *c.dst, err = count(ctx, c.c, c.name, c.f); err != nil {
			return nil, err
		}
	}

	if out.RecentApplications, err = list[models.Application](ctx, s.stores.Applications, "applications", limit(all, dashboardRecent)); err != nil {
		return nil, err
	}
	if out.RecentNews, err = list[models.News](ctx, s.stores.News, "news", limit(all, dashboardRecent)); err != nil {
		return nil, err
	}
	if out.UpcomingEvents, err = list[models.Event](ctx, s.stores.Events, "events", models.Filter{UpcomingFrom: now.UTC().UnixMilli(), Limit: dashboardRecent}); err != nil {
		return nil, err
	}
	return &out, nil
}

type Student struct {
	Applications      []models.Application `json:"applications"`
	Certificates      []models.Certificate `json:"certificates"`
	Events            []models.Event       `json:"events"`
	Programs          []models.Program     `json:"programs"`
	News              []models.News        `json:"news"`
	Projects          []models.Project     `json:"projects"`
	ApplicationsCount int64                `json:"applications_count"`
	ApprovedCount     int64                `json:"approved_count"`
	CertificatesCount int64                `json:"certificates_count"`
	ProjectsCount     int64                `json:"projects_count"`
}

// Student collects the signed-in user's own records plus what is open to them.
func (s *Service) Student(ctx context.Context, user *models.User, now time.Time) (*Student, error) {
	var (
		out Student
		err error
	)
	own := models.Filter{UserID: user.ID}
	if out.Applications, err = list[models.Application](ctx, s.stores.Applications, "applications", limit(own, studentApplications)); err != nil {
		return nil, err
	}
	if out.Certificates, err = list[models.Certificate](ctx, s.stores.Certificates, "certificates", limit(own, studentCertificates)); err != nil {
		return nil, err
	}
	if out.Events, err = s.upcoming(ctx, now, studentEvents); err != nil {
		return nil, err
	}
	if out.Programs, err = list[models.Program](ctx, s.stores.Programs, "programs", models.Filter{ActiveOnly: true, Limit: studentPrograms}); err != nil {
		return nil, err
	}
	if out.News, err = s.latestNews(ctx, studentNews); err != nil {
		return nil, err
	}
	ownActive := models.Filter{UserID: user.ID, ActiveOnly: true}
	if out.Projects, err = list[models.Project](ctx, s.stores.Projects, "projects", limit(ownActive, studentProjects)); err != nil {
		return nil, err
	}

	if out.ApplicationsCount, err = count(ctx, s.stores.Applications, "applications", own); err != nil {
		return nil, err
	}
	if out.ApprovedCount, err = count(ctx, s.stores.Applications, "approved applications", models.Filter{UserID: user.ID, Status: models.StatusApproved}); err != nil {
		return nil, err
	}
	if out.CertificatesCount, err = count(ctx, s.stores.Certificates, "certificates", own); err != nil {
		return nil, err
	}
	if out.ProjectsCount, err = count(ctx, s.stores.Projects, "projects", own); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) upcoming(ctx context.Context, now time.Time, n int) ([]models.Event, error) {
	f := models.Filter{ActiveOnly: true, UpcomingFrom: now.UTC().UnixMilli(), Limit: n}
	return list[models.Event](ctx, s.stores.Events, "events", f)
}

func (s *Service) latestNews(ctx context.Context, n int) ([]models.News, error) {
	return list[models.News](ctx, s.stores.News, "news", models.Filter{PublishedOnly: true, Limit: n})
}

func limit(f models.Filter, n int) models.Filter {
	f.Limit = n
	return f
}

type lister[T any] interface {
	List(ctx context.Context, f models.Filter) ([]T, error)
}

// list never returns a nil slice so empty sections encode as [].
func list[T any](ctx context.Context, l lister[T], name string, f models.Filter) ([]T, error) {
	items, err := l.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func count(ctx context.Context, c repository.Counter, name string, f models.Filter) (int64, error) {
	n, err := c.Count(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}
