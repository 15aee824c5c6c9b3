package enrollment_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/garnizeh/innohub/internal/enrollment"
	"github.com/garnizeh/innohub/internal/repository/sqlite"
	"github.com/garnizeh/innohub/internal/testutil"
	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
	"github.com/garnizeh/innohub/pkg/repository/mock"
)

type fixture struct {
	repo    *sqlite.SQLiteRepo
	svc     *enrollment.Service
	student *models.User
	other   *models.User
	program *models.Program
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := testutil.NewRepo(t)

	f := &fixture{
		repo:    repo,
		svc:     enrollment.NewService(repo.Applications(), repo.Programs(), nil),
		student: &models.User{Username: "student1", Role: models.RoleStudent, IsActive: true},
		other:   &models.User{Username: "student2", Role: models.RoleStudent, IsActive: true},
		program: &models.Program{Name: "Python", Level: models.LevelBeginner, Format: models.FormatOffline, IsActive: true},
	}
	for _, u := range []*models.User{f.student, f.other} {
		if err := repo.Users().Save(ctx, u); err != nil {
			t.Fatalf("save user: %v", err)
		}
	}
	if err := repo.Programs().Save(ctx, f.program); err != nil {
		t.Fatalf("save program: %v", err)
	}
	return f
}

func (f *fixture) count(t *testing.T) int64 {
	t.Helper()
	n, err := f.repo.Applications().Count(context.Background(), models.Filter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestApply_Once(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Apply(ctx, f.student, f.program.ID, "please")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if a.Status != models.StatusPending || a.ID == 0 {
		t.Fatalf("unexpected application %+v", a)
	}

	_, err = f.svc.Apply(ctx, f.student, f.program.ID, "again")
	if !errors.Is(err, enrollment.ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}
	if _, ok := apperr.IsPrecondition(err); !ok {
		t.Fatalf("duplicate must be a precondition failure")
	}
	if n := f.count(t); n != 1 {
		t.Fatalf("expected 1 application, got %d", n)
	}

	applied, err := f.svc.HasApplied(ctx, f.student, f.program.ID)
	if err != nil || !applied {
		t.Fatalf("HasApplied = %v, %v", applied, err)
	}
	applied, _ = f.svc.HasApplied(ctx, f.other, f.program.ID)
	if applied {
		t.Fatalf("other student has not applied")
	}
	if applied, _ := f.svc.HasApplied(ctx, nil, f.program.ID); applied {
		t.Fatalf("anonymous users never applied")
	}
}

func TestApply_Concurrent(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Apply(context.Background(), f.student, f.program.ID, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, dup int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, enrollment.ErrAlreadyApplied):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != 7 || f.count(t) != 1 {
		t.Fatalf("expected exactly one application, got ok=%d dup=%d", ok, dup)
	}
}

func TestApply_ProgramUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := &models.Program{Name: "Closed", Level: models.LevelAdvanced, Format: models.FormatOnline}
	if err := f.repo.Programs().Save(ctx, inactive); err != nil {
		t.Fatalf("save: %v", err)
	}

	for _, id := range []int64{inactive.ID, 999} {
		if _, err := f.svc.Apply(ctx, f.student, id, ""); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("program %d: expected ErrNotFound, got %v", id, err)
		}
	}
	if n := f.count(t); n != 0 {
		t.Fatalf("expected no applications, got %d", n)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Apply(ctx, f.student, f.program.ID, "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if err := f.svc.Cancel(ctx, f.other, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}
	if err := f.svc.Cancel(ctx, f.student, a.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got, _ := f.repo.Applications().Get(ctx, a.ID); got != nil {
		t.Fatalf("expected application deleted")
	}
	if err := f.svc.Cancel(ctx, f.student, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after cancel, got %v", err)
	}

	// a cancelled application can be filed again
	if _, err := f.svc.Apply(ctx, f.student, f.program.ID, ""); err != nil {
		t.Fatalf("re-apply: %v", err)
	}
}

// Approved applications cannot be cancelled and keep their status.
func TestCancel_AfterApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Apply(ctx, f.student, f.program.ID, "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := f.svc.SetStatus(ctx, a.ID, models.StatusApproved); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if err := f.svc.Cancel(ctx, f.student, a.ID); !errors.Is(err, enrollment.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	got, _ := f.repo.Applications().Get(ctx, a.ID)
	if got == nil || got.Status != models.StatusApproved {
		t.Fatalf("expected approved application to survive, got %+v", got)
	}
}

func TestSetStatus_AnyToAny(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Apply(ctx, f.student, f.program.ID, "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	steps := []models.ApplicationStatus{
		models.StatusApproved, models.StatusApproved, models.StatusRejected,
		models.StatusPending, models.StatusApproved, models.StatusPending,
	}
	for _, s := range steps {
		if err := f.svc.SetStatus(ctx, a.ID, s); err != nil {
			t.Fatalf("SetStatus(%s): %v", s, err)
		}
		got, _ := f.repo.Applications().Get(ctx, a.ID)
		if got.Status != s {
			t.Fatalf("expected %s, got %s", s, got.Status)
		}
	}

	err = f.svc.SetStatus(ctx, a.ID, "archived")
	if ve, ok := apperr.IsValidation(err); !ok || len(ve.Fields["status"]) == 0 {
		t.Fatalf("expected status validation error, got %v", err)
	}
	if err := f.svc.SetStatus(ctx, 999, models.StatusApproved); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApply_StoreErrors(t *testing.T) {
	m := mock.NewMocks()
	boom := errors.New("disk I/O error")
	m.Programs.Stored = map[int64]*models.Program{1: {ID: 1, Name: "Go", IsActive: true}}
	m.Applications.CreateErr = boom
	svc := enrollment.NewService(m.Applications, m.Programs, nil)

	user := &models.User{ID: 7}
	if _, err := svc.Apply(context.Background(), user, 1, ""); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}

	m.Programs.Err = boom
	if _, err := svc.Apply(context.Background(), user, 1, ""); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}

	m.Applications.Err = boom
	if err := svc.Cancel(context.Background(), user, 1); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}
}
