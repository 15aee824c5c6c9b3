package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

type Projects struct{ r *SQLiteRepo }

const projectColumns = `id, title, author_id, image, description, stage, team_members, is_approved, is_active, created, updated`

func scanProject(s interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	var author sql.NullInt64
	if err := s.Scan(&p.ID, &p.Title, &author, &p.Image, &p.Description, &p.Stage, &p.TeamMembers, &p.IsApproved, &p.IsActive, &p.Created, &p.Updated); err != nil {
		return nil, err
	}
	p.AuthorID = nullableID(author)
	return &p, nil
}

func projectWhere(f models.Filter) *where {
	w := &where{}
	w.search(f.Search, "title")
	if f.UserID > 0 {
		w.add("author_id = ?", f.UserID)
	}
	if f.ActiveOnly {
		w.add("is_active = 1")
	}
	if f.ApprovedOnly {
		w.add("is_approved = 1")
	}
	return w
}

func (s Projects) List(ctx context.Context, f models.Filter) ([]models.Project, error) {
	w := projectWhere(f)
	rows, err := s.r.conn.QueryRows(ctx, `SELECT `+projectColumns+` FROM projects`+w.String()+` ORDER BY created DESC, id DESC`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s Projects) Count(ctx context.Context, f models.Filter) (int64, error) {
	return s.r.count(ctx, "projects", projectWhere(f))
}

func (s Projects) Get(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(s.r.conn.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (s Projects) GetByTitle(ctx context.Context, title string) (*models.Project, error) {
	p, err := scanProject(s.r.conn.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE title = ? ORDER BY id LIMIT 1`, title))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (s Projects) Save(ctx context.Context, p *models.Project) error {
	if p == nil {
		return fmt.Errorf("project is nil")
	}

	ts := now()
	if p.ID == 0 {
		res, err := s.r.conn.Exec(ctx, `INSERT INTO projects (title, author_id, image, description, stage, team_members, is_approved, is_active, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Title, p.AuthorID, p.Image, p.Description, p.Stage, p.TeamMembers, p.IsApproved, p.IsActive, ts, ts)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID, p.Created, p.Updated = id, ts, ts
		return nil
	}

	res, err := s.r.conn.Exec(ctx, `UPDATE projects SET title = ?, author_id = ?, image = ?, description = ?, stage = ?, team_members = ?, is_approved = ?, is_active = ?, updated = ? WHERE id = ?`,
		p.Title, p.AuthorID, p.Image, p.Description, p.Stage, p.TeamMembers, p.IsApproved, p.IsActive, ts, p.ID)
	if err != nil {
		return err
	}
	if ok, err := rowsAffected(res); err != nil {
		return err
	} else if !ok {
		return apperr.ErrNotFound
	}
	p.Updated = ts
	return nil
}

func (s Projects) Delete(ctx context.Context, id int64) error {
	return s.r.deleteByID(ctx, "projects", id)
}

func (s Projects) ToggleActive(ctx context.Context, id int64) (bool, error) {
	return s.r.toggle(ctx, "projects", "is_active", true, id)
}

func (s Projects) ToggleApproved(ctx context.Context, id int64) (bool, error) {
	return s.r.toggle(ctx, "projects", "is_approved", true, id)
}
