package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/innohub/internal/crud"
	"github.com/garnizeh/innohub/internal/enrollment"
	"github.com/garnizeh/innohub/internal/forms"
	"github.com/garnizeh/innohub/internal/session"
	"github.com/garnizeh/innohub/internal/web"
	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

// StudentHandler is the console of any signed-in user. Records are limited
// to what is active, published or owned by the caller.
type StudentHandler struct {
	svc *Services
	now func() time.Time

	Programs     *crud.Resource[models.Program, *forms.ProgramForm]
	Applications *crud.Resource[models.Application, *forms.StatusForm]
	Events       *crud.Resource[models.Event, *forms.EventForm]
	Laboratories *crud.Resource[models.Laboratory, *forms.LaboratoryForm]
	Projects     *crud.Resource[models.Project, *forms.StudentProjectForm]
	Certificates *crud.Resource[models.Certificate, *forms.CertificateForm]
	News         *crud.Resource[models.News, *forms.NewsForm]
}

func NewStudentHandler(svc *Services) *StudentHandler {
	st := svc.Stores
	h := &StudentHandler{svc: svc, now: time.Now}

	activeOnly := func(_ *http.Request, f models.Filter) models.Filter {
		f.ActiveOnly = true
		return f
	}
	mine := func(r *http.Request, f models.Filter) models.Filter {
		f.UserID = currentUser(r).ID
		return f
	}

	h.Programs = &crud.Resource[models.Program, *forms.ProgramForm]{
		View:    "student/programs",
		Store:   st.Programs,
		ListURL: "/student/programs",
		Filter:  activeOnly,
		Scope:   func(_ *http.Request, p *models.Program) bool { return p.IsActive },
		Extra: func(r *http.Request) (web.Map, error) {
			labs, err := st.Laboratories.List(r.Context(), models.Filter{ActiveOnly: true})
			if err != nil {
				return nil, fmt.Errorf("list laboratories: %w", err)
			}
			return web.Map{"laboratories": labs}, nil
		},
	}

	h.Applications = &crud.Resource[models.Application, *forms.StatusForm]{
		View:    "student/applications",
		Store:   st.Applications,
		ListURL: "/student/applications",
		Filter:  mine,
		Scope:   func(r *http.Request, a *models.Application) bool { return a.UserID == currentUser(r).ID },
	}

	h.Events = &crud.Resource[models.Event, *forms.EventForm]{
		View:    "student/events",
		Store:   st.Events,
		ListURL: "/student/events",
		Filter:  activeOnly,
		Scope:   func(_ *http.Request, e *models.Event) bool { return e.IsActive },
	}

	h.Laboratories = &crud.Resource[models.Laboratory, *forms.LaboratoryForm]{
		View:    "student/laboratories",
		Store:   st.Laboratories,
		ListURL: "/student/laboratories",
		Filter:  activeOnly,
	}

	h.Projects = &crud.Resource[models.Project, *forms.StudentProjectForm]{
		View:    "student/projects",
		Store:   st.Projects,
		Binder:  svc.Binder,
		NewForm: func() *forms.StudentProjectForm { return &forms.StudentProjectForm{} },
		New:     func() *models.Project { return &models.Project{Stage: models.StageIdea, IsActive: true} },
		ListURL: "/student/projects",
		Messages: crud.Messages{
			Created: "Loyiha muvaffaqiyatli qo'shildi!",
			Updated: "Loyiha muvaffaqiyatli yangilandi!",
		},
		Filter: mine,
		Scope:  func(r *http.Request, p *models.Project) bool { return p.OwnedBy(currentUser(r).ID) },
		BeforeSave: func(r *http.Request, p *models.Project) error {
			if p.ID == 0 {
				author := currentUser(r).ID
				p.AuthorID = &author
			}
			return nil
		},
	}

	h.Certificates = &crud.Resource[models.Certificate, *forms.CertificateForm]{
		View:    "student/certificates",
		Store:   st.Certificates,
		ListURL: "/student/certificates",
		Filter:  mine,
	}

	h.News = &crud.Resource[models.News, *forms.NewsForm]{
		View:    "student/news",
		Store:   st.News,
		ListURL: "/student/news",
		Filter: func(_ *http.Request, f models.Filter) models.Filter {
			f.PublishedOnly = true
			return f
		},
	}

	return h
}

func (h *StudentHandler) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Overview.Student(r.Context(), currentUser(r), h.now())
	if err != nil {
		web.Fail(w, r, err, studentHome)
		return
	}
	web.View(w, r, http.StatusOK, "student/home", web.Map{"page": page})
}

func (h *StudentHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	form := &forms.ProfileForm{}
	if r.Method != http.MethodPost {
		form.Fill(u)
		web.View(w, r, http.StatusOK, "student/profile", web.Map{"form": form})
		return
	}

	err := h.svc.Binder.Bind(r, form)
	if err == nil {
		err = form.Clean(r.Context(), u)
	}
	if err == nil {
		err = h.svc.Stores.Users.Save(r.Context(), u)
	}
	if err != nil {
		h.svc.Binder.Discard(r.Context(), form)
		if ve, ok := apperr.IsValidation(err); ok {
			web.Invalid(w, r, "student/profile", ve, web.Map{"form": form})
			return
		}
		web.Fail(w, r, err, "/student/profile")
		return
	}
	web.Redirect(w, r, "/student/profile", session.LevelSuccess, "Profil muvaffaqiyatli yangilandi!")
}

// ProgramDetail renders an active program and whether the caller applied.
func (h *StudentHandler) ProgramDetail(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Programs.Load(w, r)
	if !ok {
		return
	}
	applied, err := h.svc.Enrollment.HasApplied(r.Context(), currentUser(r), p.ID)
	if err != nil {
		web.Fail(w, r, err, h.Programs.ListURL)
		return
	}
	web.View(w, r, http.StatusOK, "student/programs/detail", web.Map{"object": p, "already_applied": applied})
}

func (h *StudentHandler) Apply(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Programs.Load(w, r)
	if !ok {
		return
	}
	u := currentUser(r)
	detail := programURL(p.ID)

	if r.Method != http.MethodPost {
		applied, err := h.svc.Enrollment.HasApplied(r.Context(), u, p.ID)
		if err != nil {
			web.Fail(w, r, err, detail)
			return
		}
		if applied {
			web.Redirect(w, r, detail, session.LevelWarning, enrollment.ErrAlreadyApplied.Error())
			return
		}
		web.View(w, r, http.StatusOK, "student/programs/apply", web.Map{"form": &forms.ApplicationForm{}, "object": p})
		return
	}

	form := &forms.ApplicationForm{}
	if err := h.svc.Binder.Bind(r, form); err != nil {
		if ve, ok := apperr.IsValidation(err); ok {
			web.Invalid(w, r, "student/programs/apply", ve, web.Map{"form": form, "object": p})
			return
		}
		web.Fail(w, r, err, detail)
		return
	}

	_, err := h.svc.Enrollment.Apply(r.Context(), u, p.ID, form.Message)
	switch {
	case errors.Is(err, enrollment.ErrAlreadyApplied):
		web.Redirect(w, r, detail, session.LevelWarning, err.Error())
	case err != nil:
		web.Fail(w, r, err, detail)
	default:
		web.Redirect(w, r, h.Applications.ListURL, session.LevelSuccess, "Arizangiz muvaffaqiyatli topshirildi!")
	}
}

// Cancel withdraws one of the caller's pending applications.
func (h *StudentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(mux.Vars(r)["id"])
	if !ok {
		web.NotFound(w, r)
		return
	}
	if err := h.svc.Enrollment.Cancel(r.Context(), currentUser(r), id); err != nil {
		web.Fail(w, r, err, h.Applications.ListURL)
		return
	}
	web.Redirect(w, r, h.Applications.ListURL, session.LevelSuccess, "Ariza bekor qilindi!")
}

// NewsDetail renders a published news item by slug.
func (h *StudentHandler) NewsDetail(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Stores.News.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		web.Fail(w, r, err, h.News.ListURL)
		return
	}
	if n == nil || !n.IsPublished {
		web.NotFound(w, r)
		return
	}
	web.View(w, r, http.StatusOK, "student/news/detail", web.Map{"object": n})
}

func programURL(id int64) string {
	return "/student/programs/" + strconv.FormatInt(id, 10)
}
