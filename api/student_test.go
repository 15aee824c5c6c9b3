package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/garnizeh/innohub/internal/session"
	"github.com/garnizeh/innohub/pkg/models"
)

func saveProgram(t *testing.T, h *harness, name string, active bool) *models.Program {
	t.Helper()
	p := &models.Program{Name: name, Level: models.LevelBeginner, Format: models.FormatOnline, AgeMin: 10, AgeMax: 25, IsActive: active}
	if err := h.repo.Programs().Save(context.Background(), p); err != nil {
		t.Fatalf("save program: %v", err)
	}
	return p
}

func TestStudentApply(t *testing.T) {
	h := newHarness(t)
	b, u := h.signedIn("aziz", models.RoleStudent)
	python := saveProgram(t, h, "Python", true)
	hidden := saveProgram(t, h, "Arxiv", false)
	detail := fmt.Sprintf("/student/programs/%d", python.ID)

	doc := decodeView(t, b.get(detail))
	if doc["already_applied"] != false {
		t.Fatalf("expected already_applied=false, got %v", doc["already_applied"])
	}

	expectRedirect(t, b.post(detail+"/apply", url.Values{"message": {"salom"}}), "/student/applications")
	if !b.hasFlash(session.LevelSuccess, "Arizangiz muvaffaqiyatli topshirildi!") {
		t.Fatalf("expected apply flash, got %+v", b.flashes())
	}

	// second attempt is refused and creates nothing
	expectRedirect(t, b.post(detail+"/apply", url.Values{"message": {"yana"}}), detail)
	if !b.hasFlash(session.LevelWarning, "Siz bu dasturga allaqachon ariza topshirgansiz!") {
		t.Fatalf("expected duplicate flash, got %+v", b.flashes())
	}
	expectRedirect(t, b.get(detail+"/apply"), detail)

	n, err := h.repo.Applications().Count(context.Background(), models.Filter{UserID: u.ID})
	if err != nil || n != 1 {
		t.Fatalf("expected exactly one application, got %d (%v)", n, err)
	}

	doc = decodeView(t, b.get(detail))
	if doc["already_applied"] != true {
		t.Fatalf("expected already_applied=true, got %v", doc["already_applied"])
	}

	for _, path := range []string{
		fmt.Sprintf("/student/programs/%d", hidden.ID),
		fmt.Sprintf("/student/programs/%d/apply", hidden.ID),
		"/student/programs/9999",
	} {
		if w := b.get(path); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
	}

	items, _ := decodeView(t, b.get("/student/programs"))["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected only the active program listed, got %d", len(items))
	}
}

func TestStudentCancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b, u := h.signedIn("aziz", models.RoleStudent)
	other, _ := h.signedIn("bobur", models.RoleStudent)
	p := saveProgram(t, h, "Robototexnika", true)

	expectRedirect(t, b.post(fmt.Sprintf("/student/programs/%d/apply", p.ID), nil), "/student/applications")
	apps, _ := h.repo.Applications().List(ctx, models.Filter{UserID: u.ID})
	if len(apps) != 1 {
		t.Fatalf("expected one application, got %d", len(apps))
	}
	cancel := fmt.Sprintf("/student/applications/%d/cancel", apps[0].ID)

	if w := other.post(cancel, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 cancelling someone else's application, got %d", w.Code)
	}
	items, _ := decodeView(t, other.get("/student/applications"))["items"].([]any)
	if len(items) != 0 {
		t.Fatalf("other student sees %d applications", len(items))
	}

	expectRedirect(t, b.post(cancel, nil), "/student/applications")
	if !b.hasFlash(session.LevelSuccess, "Ariza bekor qilindi!") {
		t.Fatalf("expected cancel flash, got %+v", b.flashes())
	}
	if a, _ := h.repo.Applications().Get(ctx, apps[0].ID); a != nil {
		t.Fatalf("pending application should be gone")
	}
}

func TestStudentProjects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b, u := h.signedIn("aziz", models.RoleStudent)
	other, _ := h.signedIn("bobur", models.RoleStudent)

	expectRedirect(t, b.post("/student/projects/create", url.Values{
		"title":        {"Aqlli uy"},
		"stage":        {"prototype"},
		"team_members": {"Aziz, Malika"},
		"is_approved":  {"on"},
	}), "/student/projects")
	if !b.hasFlash(session.LevelSuccess, "Loyiha muvaffaqiyatli qo'shildi!") {
		t.Fatalf("expected project flash, got %+v", b.flashes())
	}

	projects, _ := h.repo.Projects().List(ctx, models.Filter{UserID: u.ID})
	if len(projects) != 1 {
		t.Fatalf("expected one own project, got %d", len(projects))
	}
	p := projects[0]
	if !p.OwnedBy(u.ID) || p.IsApproved || !p.IsActive {
		t.Fatalf("unexpected project state: %+v", p)
	}

	edit := fmt.Sprintf("/student/projects/%d/edit", p.ID)
	if w := other.get(edit); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign project, got %d", w.Code)
	}
	if w := other.post(edit, url.Values{"title": {"hijack"}, "stage": {"idea"}}); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign edit, got %d", w.Code)
	}

	expectRedirect(t, b.post(edit, url.Values{"title": {"Aqlli uy 2"}, "stage": {"mvp"}}), "/student/projects")
	got, _ := h.repo.Projects().Get(ctx, p.ID)
	if got.Title != "Aqlli uy 2" || got.Stage != models.StageMVP || !got.OwnedBy(u.ID) {
		t.Fatalf("unexpected project after edit: %+v", got)
	}

	w := b.post(edit, url.Values{"title": {"x"}, "stage": {"launched"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad stage, got %d", w.Code)
	}
	form := decodeView(t, w)["form"].(map[string]any)
	if form["title"] != "x" {
		t.Fatalf("expected submitted title to be kept, got %v", form["title"])
	}

	items, _ := decodeView(t, other.get("/student/projects"))["items"].([]any)
	if len(items) != 0 {
		t.Fatalf("other student sees %d projects", len(items))
	}
}

func TestStudentProfile(t *testing.T) {
	h := newHarness(t)
	b, u := h.signedIn("aziz", models.RoleStudent)

	expectRedirect(t, b.post("/student/profile", url.Values{
		"first_name": {"Aziz"},
		"last_name":  {"Karimov"},
		"birth_date": {"2008-05-14"},
		"role":       {"admin"},
	}), "/student/profile")
	if !b.hasFlash(session.LevelSuccess, "Profil muvaffaqiyatli yangilandi!") {
		t.Fatalf("expected profile flash, got %+v", b.flashes())
	}

	got, _ := h.repo.Users().Get(context.Background(), u.ID)
	if got.FirstName != "Aziz" || got.BirthDate != "2008-05-14" || got.Role != models.RoleStudent {
		t.Fatalf("unexpected profile: %+v", got)
	}

	if w := b.post("/student/profile", url.Values{"birth_date": {"14.05.2008"}}); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad date, got %d", w.Code)
	}
}

func TestStudentNewsAndEvents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b, _ := h.signedIn("aziz", models.RoleStudent)

	published := time.Now().UnixMilli()
	for _, n := range []*models.News{
		{Title: "Ochiq eshiklar", Slug: "ochiq-eshiklar", Content: "...", IsPublished: true, PublishedAt: &published},
		{Title: "Qoralama", Slug: "qoralama", Content: "..."},
	} {
		if err := h.repo.News().Save(ctx, n); err != nil {
			t.Fatalf("save news: %v", err)
		}
	}
	ev := &models.Event{Title: "Hakaton", EventType: models.EventHackathon, Date: time.Now().Add(48 * time.Hour).UnixMilli(), IsActive: true}
	if err := h.repo.Events().Save(ctx, ev); err != nil {
		t.Fatalf("save event: %v", err)
	}

	tests := []struct {
		path       string
		wantStatus int
		wantView   string
	}{
		{"/student/news/ochiq-eshiklar", http.StatusOK, "student/news/detail"},
		{"/student/news/qoralama", http.StatusNotFound, "errors/not_found"},
		{"/student/news/yoq", http.StatusNotFound, "errors/not_found"},
		{fmt.Sprintf("/student/events/%d", ev.ID), http.StatusOK, "student/events/detail"},
		{"/student/events?type=hackathon", http.StatusOK, "student/events/list"},
		{"/student/laboratories", http.StatusOK, "student/laboratories/list"},
		{"/student/certificates", http.StatusOK, "student/certificates/list"},
		{"/student/", http.StatusOK, "student/home"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			w := b.get(tc.path)
			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if doc := decodeView(t, w); doc["view"] != tc.wantView {
				t.Fatalf("expected view %s, got %v", tc.wantView, doc["view"])
			}
		})
	}

	items, _ := decodeView(t, b.get("/student/news"))["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected only published news, got %d", len(items))
	}
}
