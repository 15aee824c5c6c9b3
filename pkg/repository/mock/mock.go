package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

// Test helpers and mocks
type Mocks struct {
	Users        *UserRepo
	Programs     *ProgramRepo
	Applications *ApplicationRepo
	Settings     *SettingsRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		Users:        &UserRepo{},
		Programs:     &ProgramRepo{},
		Applications: &ApplicationRepo{},
		Settings:     &SettingsRepo{},
	}
}

// UserRepo keeps users in a slice. Err, when set, is returned by every call.
type UserRepo struct {
	mu     sync.Mutex
	Stored []models.User
	Err    error
}

func (m *UserRepo) List(ctx context.Context, f models.Filter) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.User(nil), m.Stored...), nil
}

func (m *UserRepo) Count(ctx context.Context, f models.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.Stored)), m.Err
}

func (m *UserRepo) Get(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Stored {
		if m.Stored[i].ID == id {
			u := m.Stored[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (m *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Stored {
		if m.Stored[i].Username == username {
			u := m.Stored[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (m *UserRepo) Save(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if u.ID == 0 {
		u.ID = int64(len(m.Stored) + 1)
		m.Stored = append(m.Stored, *u)
		return nil
	}
	for i := range m.Stored {
		if m.Stored[i].ID == u.ID {
			m.Stored[i] = *u
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (m *UserRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Stored {
		if m.Stored[i].ID == id {
			m.Stored = append(m.Stored[:i], m.Stored[i+1:]...)
			break
		}
	}
	return nil
}

// ProgramRepo serves the programs in Stored by id.
type ProgramRepo struct {
	Stored map[int64]*models.Program
	Err    error
}

func (m *ProgramRepo) List(ctx context.Context, f models.Filter) ([]models.Program, error) {
	var out []models.Program
	for _, p := range m.Stored {
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, m.Err
}

func (m *ProgramRepo) Count(ctx context.Context, f models.Filter) (int64, error) {
	items, err := m.List(ctx, f)
	return int64(len(items)), err
}

func (m *ProgramRepo) Get(ctx context.Context, id int64) (*models.Program, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if p, ok := m.Stored[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *ProgramRepo) GetByName(ctx context.Context, name string) (*models.Program, error) {
	for _, p := range m.Stored {
		if p.Name == name {
			cp := *p
			return &cp, m.Err
		}
	}
	return nil, m.Err
}

func (m *ProgramRepo) Save(ctx context.Context, p *models.Program) error {
	if m.Err != nil {
		return m.Err
	}
	if m.Stored == nil {
		m.Stored = map[int64]*models.Program{}
	}
	if p.ID == 0 {
		p.ID = int64(len(m.Stored) + 1)
	}
	cp := *p
	m.Stored[p.ID] = &cp
	return nil
}

func (m *ProgramRepo) Delete(ctx context.Context, id int64) error {
	delete(m.Stored, id)
	return m.Err
}

func (m *ProgramRepo) ToggleActive(ctx context.Context, id int64) (bool, error) {
	p, ok := m.Stored[id]
	if !ok {
		return false, apperr.ErrNotFound
	}
	p.IsActive = !p.IsActive
	return p.IsActive, m.Err
}

// ApplicationRepo records applications in memory. CreateErr only affects
// CreateIfAbsent; Err affects every call.
type ApplicationRepo struct {
	mu        sync.Mutex
	Stored    []models.Application
	Err       error
	CreateErr error
}

func (m *ApplicationRepo) List(ctx context.Context, f models.Filter) ([]models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Application
	for _, a := range m.Stored {
		if f.UserID > 0 && a.UserID != f.UserID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	return out, m.Err
}

func (m *ApplicationRepo) Count(ctx context.Context, f models.Filter) (int64, error) {
	items, err := m.List(ctx, f)
	return int64(len(items)), err
}

func (m *ApplicationRepo) Get(ctx context.Context, id int64) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Stored {
		if m.Stored[i].ID == id {
			a := m.Stored[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (m *ApplicationRepo) Exists(ctx context.Context, userID, programID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Stored {
		if a.UserID == userID && a.ProgramID == programID {
			return true, m.Err
		}
	}
	return false, m.Err
}

func (m *ApplicationRepo) CreateIfAbsent(ctx context.Context, a *models.Application) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return false, m.CreateErr
	}
	for _, s := range m.Stored {
		if s.UserID == a.UserID && s.ProgramID == a.ProgramID {
			return false, nil
		}
	}
	if a.Status == "" {
		a.Status = models.StatusPending
	}
	a.ID = int64(len(m.Stored) + 1)
	m.Stored = append(m.Stored, *a)
	return true, nil
}

func (m *ApplicationRepo) Save(ctx context.Context, a *models.Application) error {
	if a.ID == 0 {
		created, err := m.CreateIfAbsent(ctx, a)
		if err == nil && !created {
			err = apperr.Precondition("application already exists for this program")
		}
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Stored {
		if m.Stored[i].ID == a.ID {
			m.Stored[i] = *a
			return m.Err
		}
	}
	return apperr.ErrNotFound
}

func (m *ApplicationRepo) SetStatus(ctx context.Context, id int64, status models.ApplicationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Stored {
		if m.Stored[i].ID == id {
			m.Stored[i].Status = status
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (m *ApplicationRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Stored {
		if m.Stored[i].ID == id {
			m.Stored = append(m.Stored[:i], m.Stored[i+1:]...)
			break
		}
	}
	return nil
}

// SettingsRepo holds the singleton row and counts GetOrCreate calls. Block,
// when set, is received from before each GetOrCreate returns.
type SettingsRepo struct {
	mu      sync.Mutex
	Stored  *models.SiteSettings
	Calls   atomic.Int64
	Block   chan struct{}
	Err     error
	Updates int
}

func (m *SettingsRepo) GetOrCreate(ctx context.Context, defaults models.SiteSettings) (*models.SiteSettings, error) {
	m.Calls.Add(1)
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Stored == nil {
		defaults.ID = models.SettingsID
		m.Stored = &defaults
	}
	cp := *m.Stored
	return &cp, nil
}

func (m *SettingsRepo) Update(ctx context.Context, s *models.SiteSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	s.ID = models.SettingsID
	cp := *s
	m.Stored = &cp
	m.Updates++
	return nil
}
