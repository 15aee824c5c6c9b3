package forms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
	"github.com/garnizeh/innohub/pkg/repository"
)

const choiceMessage = "select a valid choice"

type LaboratoryForm struct {
	Name        string `form:"name" json:"name" validate:"required,notblank,max=200"`
	Icon        string `form:"icon" json:"icon" validate:"max=50"`
	Image       string `form:"-" json:"image" upload:"image,labs"`
	Description string `form:"description" json:"description"`
	Order       int    `form:"order" json:"order" validate:"min=0"`
	IsActive    bool   `form:"is_active" json:"is_active"`
}

func (f *LaboratoryForm) Fill(l *models.Laboratory) {
	*f = LaboratoryForm{Name: l.Name, Icon: l.Icon, Image: l.Image, Description: l.Description, Order: l.Order, IsActive: l.IsActive}
}

func (f *LaboratoryForm) Clean(_ context.Context, l *models.Laboratory) error {
	l.Name, l.Icon, l.Description, l.Order, l.IsActive = f.Name, f.Icon, f.Description, f.Order, f.IsActive
	keepUpload(&l.Image, f.Image)
	return nil
}

type ProgramForm struct {
	Name         string `form:"name" json:"name" validate:"required,notblank,max=200"`
	LaboratoryID int64  `form:"laboratory" json:"laboratory" validate:"min=0"`
	Image        string `form:"-" json:"image" upload:"image,programs"`
	Description  string `form:"description" json:"description"`
	Level        string `form:"level" json:"level" validate:"required,oneof=beginner advanced"`
	AgeMin       int    `form:"age_min" json:"age_min" validate:"min=0"`
	AgeMax       int    `form:"age_max" json:"age_max" validate:"min=0"`
	Format       string `form:"format" json:"format" validate:"required,oneof=offline online hybrid"`
	Duration     string `form:"duration" json:"duration" validate:"max=100"`
	StartDate    string `form:"start_date" json:"start_date" validate:"date"`
	EndDate      string `form:"end_date" json:"end_date" validate:"date"`
	IsActive     bool   `form:"is_active" json:"is_active"`

	labs repository.LaboratoryRepo
}

func NewProgramForm(labs repository.LaboratoryRepo) *ProgramForm {
	return &ProgramForm{labs: labs}
}

func (f *ProgramForm) Fill(p *models.Program) {
	f.Name, f.Image, f.Description = p.Name, p.Image, p.Description
	f.LaboratoryID = 0
	if p.LaboratoryID != nil {
		f.LaboratoryID = *p.LaboratoryID
	}
	f.Level, f.AgeMin, f.AgeMax, f.Format = string(p.Level), p.AgeMin, p.AgeMax, string(p.Format)
	f.Duration, f.StartDate, f.EndDate, f.IsActive = p.Duration, p.StartDate, p.EndDate, p.IsActive
}

func (f *ProgramForm) Clean(ctx context.Context, p *models.Program) error {
	ve := apperr.NewValidationError()
	if f.AgeMax < f.AgeMin {
		ve.Add("age_max", "age_max must not be less than age_min")
	}
	if f.StartDate != "" && f.EndDate != "" && f.EndDate < f.StartDate {
		ve.Add("end_date", "end_date must not be before start_date")
	}
	labID, err := optionalRef(ctx, f.LaboratoryID, func(ctx context.Context, id int64) (bool, error) {
		l, err := f.labs.Get(ctx, id)
		return l != nil, err
	})
	if err != nil {
		return err
	}
	if f.LaboratoryID > 0 && labID == nil {
		ve.Add("laboratory", choiceMessage)
	}
	if !ve.Empty() {
		return ve
	}

	p.Name, p.LaboratoryID, p.Description = f.Name, labID, f.Description
	p.Level, p.AgeMin, p.AgeMax, p.Format = models.Level(f.Level), f.AgeMin, f.AgeMax, models.Format(f.Format)
	p.Duration, p.StartDate, p.EndDate, p.IsActive = f.Duration, f.StartDate, f.EndDate, f.IsActive
	keepUpload(&p.Image, f.Image)
	return nil
}

type EventForm struct {
	Title       string `form:"title" json:"title" validate:"required,notblank,max=300"`
	EventType   string `form:"event_type" json:"event_type" validate:"required,oneof=masterclass hackathon lecture competition"`
	Image       string `form:"-" json:"image" upload:"image,events"`
	Description string `form:"description" json:"description"`
	Date        string `form:"date" json:"date" validate:"required,datetime_local"`
	Location    string `form:"location" json:"location" validate:"max=300"`
	IsActive    bool   `form:"is_active" json:"is_active"`
}

func (f *EventForm) Fill(e *models.Event) {
	*f = EventForm{Title: e.Title, EventType: string(e.EventType), Image: e.Image, Description: e.Description, Location: e.Location, IsActive: e.IsActive}
	if e.Date != 0 {
		f.Date = FormatDateTime(e.Date)
	}
}

func (f *EventForm) Clean(_ context.Context, e *models.Event) error {
	date, err := ParseDateTime(f.Date)
	if err != nil {
		ve := apperr.NewValidationError()
		ve.Add("date", err.Error())
		return ve
	}
	e.Title, e.EventType, e.Description, e.Date, e.Location, e.IsActive = f.Title, models.EventType(f.EventType), f.Description, date, f.Location, f.IsActive
	keepUpload(&e.Image, f.Image)
	return nil
}

type ProjectForm struct {
	Title       string `form:"title" json:"title" validate:"required,notblank,max=300"`
	AuthorID    int64  `form:"author" json:"author" validate:"min=0"`
	Image       string `form:"-" json:"image" upload:"image,projects"`
	Description string `form:"description" json:"description"`
	Stage       string `form:"stage" json:"stage" validate:"required,oneof=idea prototype mvp"`
	TeamMembers string `form:"team_members" json:"team_members"`
	IsApproved  bool   `form:"is_approved" json:"is_approved"`
	IsActive    bool   `form:"is_active" json:"is_active"`

	users repository.UserRepo
}

func NewProjectForm(users repository.UserRepo) *ProjectForm {
	return &ProjectForm{users: users}
}

func (f *ProjectForm) Fill(p *models.Project) {
	f.Title, f.Image, f.Description, f.Stage, f.TeamMembers = p.Title, p.Image, p.Description, string(p.Stage), p.TeamMembers
	f.IsApproved, f.IsActive = p.IsApproved, p.IsActive
	f.AuthorID = 0
	if p.AuthorID != nil {
		f.AuthorID = *p.AuthorID
	}
}

func (f *ProjectForm) Clean(ctx context.Context, p *models.Project) error {
	author, err := optionalRef(ctx, f.AuthorID, func(ctx context.Context, id int64) (bool, error) {
		u, err := f.users.Get(ctx, id)
		return u != nil, err
	})
	if err != nil {
		return err
	}
	if f.AuthorID > 0 && author == nil {
		ve := apperr.NewValidationError()
		ve.Add("author", choiceMessage)
		return ve
	}

	p.Title, p.AuthorID, p.Description, p.Stage, p.TeamMembers = f.Title, author, f.Description, models.Stage(f.Stage), f.TeamMembers
	p.IsApproved, p.IsActive = f.IsApproved, f.IsActive
	keepUpload(&p.Image, f.Image)
	return nil
}

type PartnerForm struct {
	Name     string `form:"name" json:"name" validate:"required,notblank,max=200"`
	Logo     string `form:"-" json:"logo" upload:"logo,partners"`
	Website  string `form:"website" json:"website" validate:"omitempty,url,max=200"`
	Order    int    `form:"order" json:"order" validate:"min=0"`
	IsActive bool   `form:"is_active" json:"is_active"`
}

func (f *PartnerForm) Fill(p *models.Partner) {
	*f = PartnerForm{Name: p.Name, Logo: p.Logo, Website: p.Website, Order: p.Order, IsActive: p.IsActive}
}

func (f *PartnerForm) Clean(_ context.Context, p *models.Partner) error {
	p.Name, p.Website, p.Order, p.IsActive = f.Name, f.Website, f.Order, f.IsActive
	keepUpload(&p.Logo, f.Logo)
	return nil
}

type CertificateForm struct {
	UserID        int64  `form:"user" json:"user" validate:"required,gt=0"`
	ProgramID     int64  `form:"program" json:"program" validate:"min=0"`
	Title         string `form:"title" json:"title" validate:"required,notblank,max=300"`
	CertificateID string `form:"certificate_id" json:"certificate_id" validate:"required,notblank,max=50"`
	IssuedDate    string `form:"issued_date" json:"issued_date" validate:"required,date"`
	PDFFile       string `form:"-" json:"pdf_file" upload:"pdf_file,certificates"`

	users    repository.UserRepo
	programs repository.ProgramRepo
	certs    repository.CertificateRepo
}

func NewCertificateForm(users repository.UserRepo, programs repository.ProgramRepo, certs repository.CertificateRepo) *CertificateForm {
	return &CertificateForm{users: users, programs: programs, certs: certs}
}

func (f *CertificateForm) Fill(c *models.Certificate) {
	f.UserID, f.Title, f.CertificateID, f.IssuedDate, f.PDFFile = c.UserID, c.Title, c.CertificateID, c.IssuedDate, c.PDFFile
	f.ProgramID = 0
	if c.ProgramID != nil {
		f.ProgramID = *c.ProgramID
	}
}

func (f *CertificateForm) Clean(ctx context.Context, c *models.Certificate) error {
	ve := apperr.NewValidationError()

	u, err := f.users.Get(ctx, f.UserID)
	if err != nil {
		return fmt.Errorf("lookup certificate user: %w", err)
	}
	if u == nil {
		ve.Add("user", choiceMessage)
	}
	program, err := optionalRef(ctx, f.ProgramID, func(ctx context.Context, id int64) (bool, error) {
		p, err := f.programs.Get(ctx, id)
		return p != nil, err
	})
	if err != nil {
		return err
	}
	if f.ProgramID > 0 && program == nil {
		ve.Add("program", choiceMessage)
	}

	existing, err := f.certs.GetByCertificateID(ctx, f.CertificateID)
	if err != nil {
		return fmt.Errorf("lookup certificate id: %w", err)
	}
	if existing != nil && existing.ID != c.ID {
		ve.Add("certificate_id", "a certificate with this ID already exists")
	}
	if !ve.Empty() {
		return ve
	}

	c.UserID, c.ProgramID, c.Title, c.CertificateID, c.IssuedDate = f.UserID, program, f.Title, f.CertificateID, f.IssuedDate
	keepUpload(&c.PDFFile, f.PDFFile)
	return nil
}

type NewsForm struct {
	Title       string `form:"title" json:"title" validate:"required,notblank,max=300"`
	Slug        string `form:"slug" json:"slug" validate:"max=300,slug"`
	Image       string `form:"-" json:"image" upload:"image,news"`
	Content     string `form:"content" json:"content" validate:"required,notblank"`
	IsPublished bool   `form:"is_published" json:"is_published"`
	PublishedAt string `form:"published_at" json:"published_at" validate:"datetime_local"`

	news repository.NewsRepo
	now  func() time.Time
}

func NewNewsForm(news repository.NewsRepo) *NewsForm {
	return &NewsForm{news: news, now: time.Now}
}

func (f *NewsForm) Fill(n *models.News) {
	f.Title, f.Slug, f.Image, f.Content, f.IsPublished = n.Title, n.Slug, n.Image, n.Content, n.IsPublished
	f.PublishedAt = ""
	if n.PublishedAt != nil {
		f.PublishedAt = FormatDateTime(*n.PublishedAt)
	}
}

// Clean derives the slug from the title when it is left blank and stamps
// published_at when an item is published without one.
func (f *NewsForm) Clean(ctx context.Context, n *models.News) error {
	ve := apperr.NewValidationError()

	taken := func(ctx context.Context, slug string) (bool, error) {
		existing, err := f.news.GetBySlug(ctx, slug)
		if err != nil {
			return false, fmt.Errorf("lookup slug: %w", err)
		}
		return existing != nil && existing.ID != n.ID, nil
	}

	slug := f.Slug
	if slug == "" {
		var err error
		if slug, err = uniqueSlug(ctx, Slugify(f.Title, slugMaxLen), taken); err != nil {
			return err
		}
	} else if used, err := taken(ctx, slug); err != nil {
		return err
	} else if used {
		ve.Add("slug", "news with this slug already exists")
	}

	var publishedAt *int64
	if f.PublishedAt != "" {
		ts, err := ParseDateTime(f.PublishedAt)
		if err != nil {
			ve.Add("published_at", err.Error())
		}
		publishedAt = &ts
	} else if f.IsPublished {
		now := time.Now
		if f.now != nil {
			now = f.now
		}
		ts := now().UTC().UnixMilli()
		publishedAt = &ts
	}
	if !ve.Empty() {
		return ve
	}

	f.Slug = slug
	n.Title, n.Slug, n.Content, n.IsPublished, n.PublishedAt = f.Title, slug, f.Content, f.IsPublished, publishedAt
	keepUpload(&n.Image, f.Image)
	return nil
}

type StatusForm struct {
	Status string `form:"status" json:"status" validate:"required,oneof=pending approved rejected"`
}

func (f *StatusForm) Fill(a *models.Application) {
	f.Status = string(a.Status)
}

func (f *StatusForm) Clean(_ context.Context, a *models.Application) error {
	a.Status = models.ApplicationStatus(f.Status)
	return nil
}

type SettingsForm struct {
	SiteName      string `form:"site_name" json:"site_name" validate:"required,notblank,max=200"`
	SiteLogo      string `form:"-" json:"site_logo" upload:"site_logo,settings"`
	SiteFavicon   string `form:"-" json:"site_favicon" upload:"site_favicon,settings"`
	Slogan        string `form:"slogan" json:"slogan" validate:"required,notblank,max=300"`
	AboutText     string `form:"about_text" json:"about_text"`
	Phone         string `form:"phone" json:"phone" validate:"max=30"`
	Email         string `form:"email" json:"email" validate:"omitempty,email,max=254"`
	Address       string `form:"address" json:"address"`
	TelegramLink  string `form:"telegram_link" json:"telegram_link" validate:"omitempty,url,max=200"`
	InstagramLink string `form:"instagram_link" json:"instagram_link" validate:"omitempty,url,max=200"`
	YoutubeLink   string `form:"youtube_link" json:"youtube_link" validate:"omitempty,url,max=200"`
	MapEmbed      string `form:"map_embed" json:"map_embed"`
	WorkingHours  string `form:"working_hours" json:"working_hours" validate:"max=200"`
}

func (f *SettingsForm) Fill(s *models.SiteSettings) {
	*f = SettingsForm{
		SiteName: s.SiteName, SiteLogo: s.SiteLogo, SiteFavicon: s.SiteFavicon, Slogan: s.Slogan,
		AboutText: s.AboutText, Phone: s.Phone, Email: s.Email, Address: s.Address,
		TelegramLink: s.TelegramLink, InstagramLink: s.InstagramLink, YoutubeLink: s.YoutubeLink,
		MapEmbed: s.MapEmbed, WorkingHours: s.WorkingHours,
	}
}

func (f *SettingsForm) Clean(_ context.Context, s *models.SiteSettings) error {
	s.SiteName, s.Slogan, s.AboutText = f.SiteName, f.Slogan, f.AboutText
	s.Phone, s.Email, s.Address = f.Phone, f.Email, f.Address
	s.TelegramLink, s.InstagramLink, s.YoutubeLink = f.TelegramLink, f.InstagramLink, f.YoutubeLink
	s.MapEmbed, s.WorkingHours = f.MapEmbed, f.WorkingHours
	keepUpload(&s.SiteLogo, f.SiteLogo)
	keepUpload(&s.SiteFavicon, f.SiteFavicon)
	return nil
}

// keepUpload replaces the stored path only when a new file was submitted.
func keepUpload(dst *string, uploaded string) {
	if uploaded != "" {
		*dst = uploaded
	}
}

// optionalRef resolves a nullable foreign key: 0 means none, and an id that
// exists() rejects also yields nil so the caller can report it.
func optionalRef(ctx context.Context, id int64, exists func(context.Context, int64) (bool, error)) (*int64, error) {
	if id <= 0 {
		return nil, nil
	}
	ok, err := exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup reference %d: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return &id, nil
}

// ParseDateTime reads a datetime-local value as UTC unix milliseconds.
func ParseDateTime(s string) (int64, error) {
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return 0, errors.New("enter a valid date and time")
	}
	return t.UTC().UnixMilli(), nil
}

// FormatDateTime renders unix milliseconds for a datetime-local input.
func FormatDateTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(DateTimeLayout)
}
