package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/innohub/internal/crud"
	"github.com/garnizeh/innohub/internal/forms"
	"github.com/garnizeh/innohub/internal/session"
	"github.com/garnizeh/innohub/internal/web"
	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

const toggledMsg = "Holat o'zgartirildi!"

var errSelfDelete = apperr.Precondition("O'zingizni o'chira olmaysiz!")

// DashboardHandler is the admin console. Every route is behind RequireAdmin.
type DashboardHandler struct {
	svc *Services
	now func() time.Time

	Laboratories *crud.Resource[models.Laboratory, *forms.LaboratoryForm]
	Programs     *crud.Resource[models.Program, *forms.ProgramForm]
	Events       *crud.Resource[models.Event, *forms.EventForm]
	Projects     *crud.Resource[models.Project, *forms.ProjectForm]
	Partners     *crud.Resource[models.Partner, *forms.PartnerForm]
	Certificates *crud.Resource[models.Certificate, *forms.CertificateForm]
	News         *crud.Resource[models.News, *forms.NewsForm]
	Users        *crud.Resource[models.User, *forms.UserForm]
	Applications *crud.Resource[models.Application, *forms.StatusForm]
}

func NewDashboardHandler(svc *Services) *DashboardHandler {
	st := svc.Stores
	h := &DashboardHandler{svc: svc, now: time.Now}

	h.Laboratories = &crud.Resource[models.Laboratory, *forms.LaboratoryForm]{
		View:    "dashboard/laboratories",
		Store:   st.Laboratories,
		Binder:  svc.Binder,
		NewForm: func() *forms.LaboratoryForm { return &forms.LaboratoryForm{} },
		New:     func() *models.Laboratory { return &models.Laboratory{IsActive: true} },
		ListURL: "/dashboard/laboratories",
		Messages: crud.Messages{
			Created: "Laboratoriya muvaffaqiyatli qo'shildi!",
			Updated: "Laboratoriya muvaffaqiyatli yangilandi!",
			Deleted: "Laboratoriya o'chirildi!",
			Toggled: toggledMsg,
		},
	}

	h.Programs = &crud.Resource[models.Program, *forms.ProgramForm]{
		View:    "dashboard/programs",
		Store:   st.Programs,
		Binder:  svc.Binder,
		NewForm: func() *forms.ProgramForm { return forms.NewProgramForm(st.Laboratories) },
		New: func() *models.Program {
			return &models.Program{Level: models.LevelBeginner, Format: models.FormatOffline, AgeMin: 10, AgeMax: 25, IsActive: true}
		},
		ListURL: "/dashboard/programs",
		Messages: crud.Messages{
			Created: "Dastur muvaffaqiyatli qo'shildi!",
			Updated: "Dastur muvaffaqiyatli yangilandi!",
			Deleted: "Dastur o'chirildi!",
			Toggled: toggledMsg,
		},
		Extra: h.labChoices,
	}

	h.Events = &crud.Resource[models.Event, *forms.EventForm]{
		View:    "dashboard/events",
		Store:   st.Events,
		Binder:  svc.Binder,
		NewForm: func() *forms.EventForm { return &forms.EventForm{} },
		New: func() *models.Event {
			return &models.Event{EventType: models.EventMasterclass, IsActive: true}
		},
		ListURL: "/dashboard/events",
		Messages: crud.Messages{
			Created: "Tadbir muvaffaqiyatli qo'shildi!",
			Updated: "Tadbir muvaffaqiyatli yangilandi!",
			Deleted: "Tadbir o'chirildi!",
			Toggled: toggledMsg,
		},
	}

	h.Projects = &crud.Resource[models.Project, *forms.ProjectForm]{
		View:    "dashboard/projects",
		Store:   st.Projects,
		Binder:  svc.Binder,
		NewForm: func() *forms.ProjectForm { return forms.NewProjectForm(st.Users) },
		New:     func() *models.Project { return &models.Project{Stage: models.StageIdea, IsActive: true} },
		ListURL: "/dashboard/projects",
		Messages: crud.Messages{
			Created: "Loyiha muvaffaqiyatli qo'shildi!",
			Updated: "Loyiha muvaffaqiyatli yangilandi!",
			Deleted: "Loyiha o'chirildi!",
			Toggled: toggledMsg,
		},
		Extra: h.userChoices,
	}

	h.Partners = &crud.Resource[models.Partner, *forms.PartnerForm]{
		View:    "dashboard/partners",
		Store:   st.Partners,
		Binder:  svc.Binder,
		NewForm: func() *forms.PartnerForm { return &forms.PartnerForm{} },
		New:     func() *models.Partner { return &models.Partner{IsActive: true} },
		ListURL: "/dashboard/partners",
		Messages: crud.Messages{
			Created: "Hamkor muvaffaqiyatli qo'shildi!",
			Updated: "Hamkor muvaffaqiyatli yangilandi!",
			Deleted: "Hamkor o'chirildi!",
			Toggled: toggledMsg,
		},
	}

	h.Certificates = &crud.Resource[models.Certificate, *forms.CertificateForm]{
		View:   "dashboard/certificates",
		Store:  st.Certificates,
		Binder: svc.Binder,
		NewForm: func() *forms.CertificateForm {
			return forms.NewCertificateForm(st.Users, st.Programs, st.Certificates)
		},
		New: func() *models.Certificate {
			return &models.Certificate{IssuedDate: h.now().Format(models.DateLayout)}
		},
		ListURL: "/dashboard/certificates",
		Messages: crud.Messages{
			Created: "Sertifikat muvaffaqiyatli qo'shildi!",
			Updated: "Sertifikat muvaffaqiyatli yangilandi!",
			Deleted: "Sertifikat o'chirildi!",
		},
		Extra: h.certificateChoices,
	}

	h.News = &crud.Resource[models.News, *forms.NewsForm]{
		View:    "dashboard/news",
		Store:   st.News,
		Binder:  svc.Binder,
		NewForm: func() *forms.NewsForm { return forms.NewNewsForm(st.News) },
		ListURL: "/dashboard/news",
		Messages: crud.Messages{
			Created: "Yangilik muvaffaqiyatli qo'shildi!",
			Updated: "Yangilik muvaffaqiyatli yangilandi!",
			Deleted: "Yangilik o'chirildi!",
		},
	}

	h.Users = &crud.Resource[models.User, *forms.UserForm]{
		View:    "dashboard/users",
		Store:   st.Users,
		Binder:  svc.Binder,
		NewForm: func() *forms.UserForm { return forms.NewUserForm(st.Users) },
		New:     func() *models.User { return &models.User{Role: models.RoleStudent, IsActive: true} },
		ListURL: "/dashboard/users",
		Messages: crud.Messages{
			Created: "Foydalanuvchi muvaffaqiyatli qo'shildi!",
			Updated: "Foydalanuvchi muvaffaqiyatli yangilandi!",
			Deleted: "Foydalanuvchi o'chirildi!",
		},
		BeforeDelete: func(r *http.Request, u *models.User) error {
			if me := currentUser(r); me != nil && me.ID == u.ID {
				return errSelfDelete
			}
			return nil
		},
	}

	h.Applications = &crud.Resource[models.Application, *forms.StatusForm]{
		View:    "dashboard/applications",
		Store:   st.Applications,
		Binder:  svc.Binder,
		NewForm: func() *forms.StatusForm { return &forms.StatusForm{} },
		ListURL: "/dashboard/applications",
		Messages: crud.Messages{
			Deleted: "Ariza o'chirildi!",
		},
	}

	return h
}

func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Overview.Admin(r.Context(), h.now())
	if err != nil {
		web.Fail(w, r, err, dashboardHome)
		return
	}
	web.View(w, r, http.StatusOK, "dashboard/home", web.Map{"stats": stats})
}

// ToggleApprove flips a project's approval and names the outcome.
func (h *DashboardHandler) ToggleApprove(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Projects.Load(w, r)
	if !ok {
		return
	}
	approved, err := h.svc.Stores.Projects.ToggleApproved(r.Context(), p.ID)
	if err != nil {
		web.Fail(w, r, err, h.Projects.ListURL)
		return
	}
	status := "tasdiq bekor qilindi"
	if approved {
		status = "tasdiqlandi"
	}
	web.Redirect(w, r, h.Projects.ListURL, session.LevelSuccess, fmt.Sprintf(`"%s" loyihasi %s!`, p.Title, status))
}

// ApplicationStatus sets an application to the submitted status. Unknown
// values are ignored, as the list page only offers the known ones.
func (h *DashboardHandler) ApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(mux.Vars(r)["id"])
	if !ok {
		web.NotFound(w, r)
		return
	}
	form := &forms.StatusForm{}
	if err := h.svc.Binder.Bind(r, form); err != nil {
		if _, invalid := apperr.IsValidation(err); invalid {
			web.Redirect(w, r, h.Applications.ListURL, "", "")
			return
		}
		web.Fail(w, r, err, h.Applications.ListURL)
		return
	}
	if err := h.svc.Enrollment.SetStatus(r.Context(), id, models.ApplicationStatus(form.Status)); err != nil {
		web.Fail(w, r, err, h.Applications.ListURL)
		return
	}
	web.Redirect(w, r, h.Applications.ListURL, session.LevelSuccess, "Ariza holati yangilandi!")
}

func (h *DashboardHandler) Settings(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Settings.Get(r.Context())
	if err != nil {
		web.Fail(w, r, err, dashboardHome)
		return
	}
	form := &forms.SettingsForm{}
	if r.Method != http.MethodPost {
		form.Fill(st)
		web.View(w, r, http.StatusOK, "dashboard/settings", web.Map{"form": form, "object": st})
		return
	}

	err = h.svc.Binder.Bind(r, form)
	if err == nil {
		err = form.Clean(r.Context(), st)
	}
	if err == nil {
		err = h.svc.Settings.Save(r.Context(), st)
	}
	if err != nil {
		h.svc.Binder.Discard(r.Context(), form)
		if ve, ok := apperr.IsValidation(err); ok {
			web.Invalid(w, r, "dashboard/settings", ve, web.Map{"form": form, "object": st})
			return
		}
		web.Fail(w, r, err, "/dashboard/settings")
		return
	}
	web.Redirect(w, r, "/dashboard/settings", session.LevelSuccess, "Sozlamalar muvaffaqiyatli saqlandi!")
}

func (h *DashboardHandler) labChoices(r *http.Request) (web.Map, error) {
	labs, err := h.svc.Stores.Laboratories.List(r.Context(), models.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list laboratories: %w", err)
	}
	return web.Map{"laboratories": labs}, nil
}

func (h *DashboardHandler) userChoices(r *http.Request) (web.Map, error) {
	users, err := h.svc.Stores.Users.List(r.Context(), models.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return web.Map{"users": users}, nil
}

func (h *DashboardHandler) certificateChoices(r *http.Request) (web.Map, error) {
	data, err := h.userChoices(r)
	if err != nil {
		return nil, err
	}
	programs, err := h.svc.Stores.Programs.List(r.Context(), models.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	data["programs"] = programs
	return data, nil
}
