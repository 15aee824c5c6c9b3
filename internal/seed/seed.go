package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/garnizeh/innohub/internal/auth"
	"github.com/garnizeh/innohub/pkg/models"
	"github.com/garnizeh/innohub/pkg/repository"
)

const fallbackPassword = "student123"

type Stores struct {
	Users        repository.UserRepo
	Laboratories repository.LaboratoryRepo
	Programs     repository.ProgramRepo
	Events       repository.EventRepo
	Projects     repository.ProjectRepo
	Partners     repository.PartnerRepo
	News         repository.NewsRepo
	Settings     repository.SettingsRepo
}

// Admin, when Username is set, is created as a superuser if missing.
type Admin struct {
	Username string
	Password string
}

// Report counts rows created per kind; "existing" counts matches left alone.
type Report struct {
	Created  map[string]int
	Existing map[string]int
}

func (r Report) add(kind string, created bool) {
	if created {
		r.Created[kind]++
	} else {
		r.Existing[kind]++
	}
}

type Seeder struct {
	stores Stores
	logger *slog.Logger
	now    func() time.Time
}

func NewSeeder(stores Stores, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{stores: stores, logger: logger, now: time.Now}
}

// Run applies doc. Entities are seeded in dependency order: users and
// laboratories before the programs and projects that refer to them.
func (s *Seeder) Run(ctx context.Context, doc *Document, admin Admin) (Report, error) {
	rep := Report{Created: map[string]int{}, Existing: map[string]int{}}
	now := s.now().UTC()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"settings", func() error { return s.settings(ctx, doc.Settings) }},
		{"admin", func() error { return s.admin(ctx, admin, rep) }},
		{"users", func() error { return s.users(ctx, doc, rep) }},
		{"laboratories", func() error { return s.laboratories(ctx, doc.Laboratories, rep) }},
		{"programs", func() error { return s.programs(ctx, doc.Programs, now, rep) }},
		{"events", func() error { return s.events(ctx, doc.Events, now, rep) }},
		{"projects", func() error { return s.projects(ctx, doc.Projects, rep) }},
		{"partners", func() error { return s.partners(ctx, doc.Partners, rep) }},
		{"news", func() error { return s.news(ctx, doc.News, now, rep) }},
	}
	for _, st := range steps {
		if err := st.fn(); err != nil {
			return rep, fmt.Errorf("seed %s: %w", st.name, err)
		}
	}

	s.logger.Info("seed finished", slog.Any("created", rep.Created), slog.Any("existing", rep.Existing))
	return rep, nil
}

// settings overwrites the singleton with the document values.
func (s *Seeder) settings(ctx context.Context, in *Settings) error {
	st, err := s.stores.Settings.GetOrCreate(ctx, models.DefaultSiteSettings())
	if err != nil {
		return err
	}
	if in == nil {
		return nil
	}
	st.SiteName, st.Slogan, st.AboutText = in.SiteName, in.Slogan, in.AboutText
	st.Phone, st.Email, st.Address = in.Phone, in.Email, in.Address
	st.TelegramLink, st.InstagramLink, st.YoutubeLink = in.TelegramLink, in.InstagramLink, in.YoutubeLink
	st.MapEmbed, st.WorkingHours = in.MapEmbed, in.WorkingHours
	return s.stores.Settings.Update(ctx, st)
}

func (s *Seeder) admin(ctx context.Context, admin Admin, rep Report) error {
	if admin.Username == "" {
		return nil
	}
	if admin.Password == "" {
		return fmt.Errorf("admin %q needs a password", admin.Username)
	}
	existing, err := s.stores.Users.GetByUsername(ctx, admin.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		rep.add("users", false)
		return nil
	}
	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	u := &models.User{Username: admin.Username, PasswordHash: hash, Role: models.RoleAdmin, IsSuperuser: true, IsActive: true}
	if err := s.stores.Users.Save(ctx, u); err != nil {
		return err
	}
	rep.add("users", true)
	return nil
}

// users creates missing accounts. Passwords are only set on creation.
func (s *Seeder) users(ctx context.Context, doc *Document, rep Report) error {
	defaultPassword := doc.DefaultPassword
	if defaultPassword == "" {
		defaultPassword = fallbackPassword
	}
	for _, in := range doc.Users {
		existing, err := s.stores.Users.GetByUsername(ctx, in.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			rep.add("users", false)
			continue
		}

		pw := in.Password
		if pw == "" {
			pw = defaultPassword
		}
		hash, err := auth.HashPassword(pw)
		if err != nil {
			return err
		}
		role := models.Role(in.Role)
		if !role.Valid() {
			role = models.RoleStudent
		}
		u := &models.User{
			Username: in.Username, PasswordHash: hash, Role: role,
			FirstName: in.FirstName, LastName: in.LastName, Email: in.Email, Phone: in.Phone,
			IsActive: true,
		}
		if err := s.stores.Users.Save(ctx, u); err != nil {
			return fmt.Errorf("user %q: %w", in.Username, err)
		}
		rep.add("users", true)
	}
	return nil
}

func (s *Seeder) laboratories(ctx context.Context, in []Laboratory, rep Report) error {
	for _, l := range in {
		existing, err := s.stores.Laboratories.GetByName(ctx, l.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			rep.add("laboratories", false)
			continue
		}
		rec := &models.Laboratory{Name: l.Name, Icon: l.Icon, Description: l.Description, Order: l.Order, IsActive: true}
		if err := s.stores.Laboratories.Save(ctx, rec); err != nil {
			return fmt.Errorf("laboratory %q: %w", l.Name, err)
		}
		rep.add("laboratories", true)
	}
	return nil
}

func (s *Seeder) programs(ctx context.Context, in []Program, now time.Time, rep Report) error {
	for _, p := range in {
		existing, err := s.stores.Programs.GetByName(ctx, p.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			rep.add("programs", false)
			continue
		}

		var labID *int64
		if p.Laboratory != "" {
			lab, err := s.stores.Laboratories.GetByName(ctx, p.Laboratory)
			if err != nil {
				return err
			}
			if lab == nil {
				return fmt.Errorf("program %q: unknown laboratory %q", p.Name, p.Laboratory)
			}
			labID = &lab.ID
		}
		rec := &models.Program{
			Name: p.Name, LaboratoryID: labID, Description: p.Description,
			Level: models.Level(p.Level), Format: models.Format(p.Format),
			AgeMin: p.AgeMin, AgeMax: p.AgeMax, Duration: p.Duration,
			StartDate: dayOffset(now, p.StartInDays), EndDate: dayOffset(now, p.EndInDays),
			IsActive: true,
		}
		if err := s.stores.Programs.Save(ctx, rec); err != nil {
			return fmt.Errorf("program %q: %w", p.Name, err)
		}
		rep.add("programs", true)
	}
	return nil
}

func (s *Seeder) events(ctx context.Context, in []Event, now time.Time, rep Report) error {
	for _, e := range in {
		existing, err := s.stores.Events.GetByTitle(ctx, e.Title)
		if err != nil {
			return err
		}
		if existing != nil {
			rep.add("events", false)
			continue
		}
		rec := &models.Event{
			Title: e.Title, EventType: models.EventType(e.EventType), Description: e.Description,
			Date: now.AddDate(0, 0, e.InDays).UnixMilli(), Location: e.Location, IsActive: true,
		}
		if err := s.stores.Events.Save(ctx, rec); err != nil {
			return fmt.Errorf("event %q: %w", e.Title, err)
		}
		rep.add("events", true)
	}
	return nil
}

// projects default to approved, the way the demo site shows them.
func (s *Seeder) projects(ctx context.Context, in []Project, rep Report) error {
	for _, p := range in {
		existing, err := s.stores.Projects.GetByTitle(ctx, p.Title)
		if err != nil {
			return err
		}
		if existing != nil {
			rep.add("projects", false)
			continue
		}

		var authorID *int64
		if p.Author != "" {
			u, err := s.stores.Users.GetByUsername(ctx, p.Author)
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("project %q: unknown author %q", p.Title, p.Author)
			}
			authorID = &u.ID
		}
		approved := p.IsApproved == nil || *p.IsApproved
		rec := &models.Project{
			Title: p.Title, AuthorID: authorID, Description: p.Description, Stage: models.Stage(p.Stage),
			TeamMembers: p.TeamMembers, IsApproved: approved, IsActive: true,
		}
		if err := s.stores.Projects.Save(ctx, rec); err != nil {
			return fmt.Errorf("project %q: %w", p.Title, err)
		}
		rep.add("projects", true)
	}
	return nil
}

func (s *Seeder) partners(ctx context.Context, in []Partner, rep Report) error {
	for _, p := range in {
		existing, err := s.stores.Partners.GetByName(ctx, p.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			rep.add("partners", false)
			continue
		}
		rec := &models.Partner{Name: p.Name, Website: p.Website, Order: p.Order, IsActive: true}
		if err := s.stores.Partners.Save(ctx, rec); err != nil {
			return fmt.Errorf("partner %q: %w", p.Name, err)
		}
		rep.add("partners", true)
	}
	return nil
}

func (s *Seeder) news(ctx context.Context, in []News, now time.Time, rep Report) error {
	for _, n := range in {
		existing, err := s.stores.News.GetBySlug(ctx, n.Slug)
		if err != nil {
			return err
		}
		if existing != nil {
			rep.add("news", false)
			continue
		}
		rec := &models.News{Title: n.Title, Slug: n.Slug, Content: n.Content, IsPublished: !n.Draft}
		if rec.IsPublished {
			ts := now.AddDate(0, 0, -n.PublishedDaysAgo).UnixMilli()
			rec.PublishedAt = &ts
		}
		if err := s.stores.News.Save(ctx, rec); err != nil {
			return fmt.Errorf("news %q: %w", n.Slug, err)
		}
		rep.add("news", true)
	}
	return nil
}

func dayOffset(now time.Time, days *int) string {
	if days == nil {
		return ""
	}
	return now.AddDate(0, 0, *days).Format(models.DateLayout)
}
