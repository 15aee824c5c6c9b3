package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/innohub/internal/config"
	"github.com/garnizeh/innohub/internal/db"
	"github.com/garnizeh/innohub/internal/web"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, db *db.DB) *mux.Router {
	return NewRouter(NewServices(cfg, db, logger), version, buildTime)
}

// adminResource is the route surface of a dashboard CRUD resource.
type adminResource interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Edit(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	ToggleActive(w http.ResponseWriter, r *http.Request)
}

func NewRouter(svc *Services, version, buildTime string) *mux.Router {
	r := mux.NewRouter().StrictSlash(true)
	r.NotFoundHandler = http.HandlerFunc(web.NotFound)

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	gate := NewGate(svc.Sessions, svc.Stores.Users)
	r.Use(gate.Identify)

	// Create handlers
	systemHandler := &SystemHandler{DB: svc.Pinger}
	siteHandler := NewSiteHandler(svc.Overview)
	authHandler := NewAuthHandler(svc.Auth, svc.Stores.Users, svc.Sessions, svc.Binder)
	dash := NewDashboardHandler(svc)
	student := NewStudentHandler(svc)

	// Open endpoints
	r.HandleFunc("/", siteHandler.Landing).Methods(http.MethodGet)
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods(http.MethodGet)
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods(http.MethodGet)
	r.PathPrefix(svc.Media.Prefix()).Handler(svc.Media.Handler()).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/login", authHandler.Login).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/register", authHandler.Register).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Admin console
	admin := r.PathPrefix("/dashboard").Subrouter()
	admin.Use(gate.RequireAdmin)
	admin.HandleFunc("/", dash.Home).Methods(http.MethodGet)
	mountAdmin(admin, "/laboratories", dash.Laboratories, true)
	mountAdmin(admin, "/programs", dash.Programs, true)
	mountAdmin(admin, "/events", dash.Events, true)
	mountAdmin(admin, "/projects", dash.Projects, true)
	mountAdmin(admin, "/partners", dash.Partners, true)
	mountAdmin(admin, "/certificates", dash.Certificates, false)
	mountAdmin(admin, "/news", dash.News, false)
	mountAdmin(admin, "/users", dash.Users, false)
	admin.HandleFunc("/projects/{id:[0-9]+}/approve", dash.ToggleApprove).Methods(http.MethodPost)
	admin.HandleFunc("/applications", dash.Applications.List).Methods(http.MethodGet)
	admin.HandleFunc("/applications/{id:[0-9]+}/status", dash.ApplicationStatus).Methods(http.MethodPost)
	admin.HandleFunc("/applications/{id:[0-9]+}/delete", dash.Applications.Delete).Methods(http.MethodGet, http.MethodPost)
	admin.HandleFunc("/settings", dash.Settings).Methods(http.MethodGet, http.MethodPost)

	// Student console
	me := r.PathPrefix("/student").Subrouter()
	me.Use(gate.RequireLogin)
	me.HandleFunc("/", student.Home).Methods(http.MethodGet)
	me.HandleFunc("/profile", student.Profile).Methods(http.MethodGet, http.MethodPost)
	me.HandleFunc("/programs", student.Programs.List).Methods(http.MethodGet)
	me.HandleFunc("/programs/{id:[0-9]+}", student.ProgramDetail).Methods(http.MethodGet)
	me.HandleFunc("/programs/{id:[0-9]+}/apply", student.Apply).Methods(http.MethodGet, http.MethodPost)
	me.HandleFunc("/applications", student.Applications.List).Methods(http.MethodGet)
	me.HandleFunc("/applications/{id:[0-9]+}/cancel", student.Cancel).Methods(http.MethodPost)
	me.HandleFunc("/events", student.Events.List).Methods(http.MethodGet)
	me.HandleFunc("/events/{id:[0-9]+}", student.Events.Detail).Methods(http.MethodGet)
	me.HandleFunc("/laboratories", student.Laboratories.List).Methods(http.MethodGet)
	me.HandleFunc("/projects", student.Projects.List).Methods(http.MethodGet)
	me.HandleFunc("/projects/create", student.Projects.Create).Methods(http.MethodGet, http.MethodPost)
	me.HandleFunc("/projects/{id:[0-9]+}/edit", student.Projects.Edit).Methods(http.MethodGet, http.MethodPost)
	me.HandleFunc("/certificates", student.Certificates.List).Methods(http.MethodGet)
	me.HandleFunc("/news", student.News.List).Methods(http.MethodGet)
	me.HandleFunc("/news/{slug}", student.NewsDetail).Methods(http.MethodGet)

	return r
}

func mountAdmin(r *mux.Router, path string, res adminResource, toggle bool) {
	r.HandleFunc(path, res.List).Methods(http.MethodGet)
	r.HandleFunc(path+"/create", res.Create).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(path+"/{id:[0-9]+}/edit", res.Edit).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(path+"/{id:[0-9]+}/delete", res.Delete).Methods(http.MethodGet, http.MethodPost)
	if toggle {
		r.HandleFunc(path+"/{id:[0-9]+}/toggle", res.ToggleActive).Methods(http.MethodPost)
	}
}
