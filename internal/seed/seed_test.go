package seed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garnizeh/innohub/internal/auth"
	"github.com/garnizeh/innohub/internal/repository/sqlite"
	"github.com/garnizeh/innohub/internal/seed"
	"github.com/garnizeh/innohub/internal/testutil"
	"github.com/garnizeh/innohub/pkg/models"
)

func stores(repo *sqlite.SQLiteRepo) seed.Stores {
	return seed.Stores{
		Users:        repo.Users(),
		Laboratories: repo.Laboratories(),
		Programs:     repo.Programs(),
		Events:       repo.Events(),
		Projects:     repo.Projects(),
		Partners:     repo.Partners(),
		News:         repo.News(),
		Settings:     repo.Settings(),
	}
}

func defaultDoc(t *testing.T) *seed.Document {
	t.Helper()
	raw, err := seed.DefaultDocument()
	if err != nil {
		t.Fatalf("DefaultDocument: %v", err)
	}
	doc, err := seed.Parse(context.Background(), raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestParse_DefaultDocument(t *testing.T) {
	doc := defaultDoc(t)
	if len(doc.Users) != 8 || len(doc.Laboratories) != 6 || len(doc.Programs) != 8 ||
		len(doc.Events) != 6 || len(doc.Projects) != 8 || len(doc.Partners) != 8 || len(doc.News) != 5 {
		t.Fatalf("unexpected document sizes: %d users, %d labs, %d programs, %d events, %d projects, %d partners, %d news",
			len(doc.Users), len(doc.Laboratories), len(doc.Programs), len(doc.Events), len(doc.Projects), len(doc.Partners), len(doc.News))
	}
	if doc.Settings == nil || doc.Settings.SiteName == "" {
		t.Fatalf("expected settings section")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown section", "teachers: []\n"},
		{"bad level", "programs:\n  - {name: X, level: expert, format: online}\n"},
		{"missing slug", "news:\n  - {title: T, content: C}\n"},
		{"bad username", "users:\n  - {username: \"has space\"}\n"},
		{"wrong type", "partners:\n  - {name: P, order: first}\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := seed.Parse(context.Background(), []byte(tc.doc))
			var ve *seed.ValidationError
			if !errors.As(err, &ve) || len(ve.Problems) == 0 {
				t.Fatalf("expected schema violations, got %v", err)
			}
		})
	}

	if _, err := seed.Parse(context.Background(), []byte("users: [\n")); err == nil {
		t.Fatalf("expected yaml syntax error")
	}
	if doc, err := seed.Parse(context.Background(), []byte("")); err != nil || doc == nil {
		t.Fatalf("empty document should be valid, got %v", err)
	}
}

func TestRun_Idempotent(t *testing.T) {
	repo := testutil.NewRepo(t)
	ctx := context.Background()
	doc := defaultDoc(t)
	s := seed.NewSeeder(stores(repo), nil)
	admin := seed.Admin{Username: "admin", Password: "admin123"}

	first, err := s.Run(ctx, doc, admin)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	want := map[string]int{"users": 9, "laboratories": 6, "programs": 8, "events": 6, "projects": 8, "partners": 8, "news": 5}
	for kind, n := range want {
		if first.Created[kind] != n {
			t.Fatalf("first run created %d %s, want %d", first.Created[kind], kind, n)
		}
	}

	// a changed password must survive a second run
	u, _ := repo.Users().GetByUsername(ctx, "jasur_k")
	u.PasswordHash, _ = auth.HashPassword("changed")
	if err := repo.Users().Save(ctx, u); err != nil {
		t.Fatalf("save: %v", err)
	}

	second, err := s.Run(ctx, doc, admin)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	for kind, n := range want {
		if second.Created[kind] != 0 || second.Existing[kind] != n {
			t.Fatalf("second run %s: created %d existing %d", kind, second.Created[kind], second.Existing[kind])
		}
	}

	authn := auth.NewService(repo.Users(), nil)
	if _, err := authn.Authenticate(ctx, "jasur_k", "changed"); err != nil {
		t.Fatalf("password was reset by the seed: %v", err)
	}
	if _, err := authn.Authenticate(ctx, "malika_r", "student123"); err != nil {
		t.Fatalf("default password not set: %v", err)
	}
	adm, err := authn.Authenticate(ctx, "admin", "admin123")
	if err != nil || !adm.IsAdmin() {
		t.Fatalf("admin not usable: %+v, %v", adm, err)
	}

	n, _ := repo.Users().Count(ctx, models.Filter{})
	if n != 9 {
		t.Fatalf("expected 9 users, got %d", n)
	}
}

func TestRun_ReferencesAndDates(t *testing.T) {
	repo := testutil.NewRepo(t)
	ctx := context.Background()
	s := seed.NewSeeder(stores(repo), nil)

	if _, err := s.Run(ctx, defaultDoc(t), seed.Admin{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	p, _ := repo.Programs().GetByName(ctx, "Python dasturlash")
	lab, _ := repo.Laboratories().GetByName(ctx, "Dasturlash laboratoriyasi")
	if p == nil || lab == nil || p.LaboratoryID == nil || *p.LaboratoryID != lab.ID {
		t.Fatalf("program not linked to its laboratory: %+v", p)
	}
	wantStart := time.Now().UTC().AddDate(0, 0, 7).Format(models.DateLayout)
	if p.StartDate != wantStart {
		t.Fatalf("start date %q, want %q", p.StartDate, wantStart)
	}

	proj, _ := repo.Projects().GetByTitle(ctx, "GreenCity Analytics")
	author, _ := repo.Users().GetByUsername(ctx, "sardor_a")
	if proj == nil || !proj.OwnedBy(author.ID) || !proj.IsApproved {
		t.Fatalf("unexpected project %+v", proj)
	}

	upcoming, _ := repo.Events().List(ctx, models.Filter{UpcomingFrom: time.Now().UnixMilli()})
	if len(upcoming) != 6 {
		t.Fatalf("expected all seeded events upcoming, got %d", len(upcoming))
	}

	st, _ := repo.Settings().GetOrCreate(ctx, models.DefaultSiteSettings())
	if st.Email != "info@yim.uz" {
		t.Fatalf("settings not applied: %+v", st)
	}
}

func TestRun_UnknownReference(t *testing.T) {
	repo := testutil.NewRepo(t)
	doc, err := seed.Parse(context.Background(), []byte("projects:\n  - {title: Orphan, author: nobody, stage: idea}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := seed.NewSeeder(stores(repo), nil).Run(context.Background(), doc, seed.Admin{}); err == nil {
		t.Fatalf("expected unknown author error")
	}
}
