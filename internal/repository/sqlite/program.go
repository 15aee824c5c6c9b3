package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

type Programs struct{ r *SQLiteRepo }

const programColumns = `id, name, laboratory_id, image, description, level, age_min, age_max, format, duration, start_date, end_date, is_active, created, updated`

func scanProgram(s interface{ Scan(...any) error }) (*models.Program, error) {
	var p models.Program
	var lab sql.NullInt64
	if err := s.Scan(&p.ID, &p.Name, &lab, &p.Image, &p.Description, &p.Level, &p.AgeMin, &p.AgeMax, &p.Format, &p.Duration, &p.StartDate, &p.EndDate, &p.IsActive, &p.Created, &p.Updated); err != nil {
		return nil, err
	}
	p.LaboratoryID = nullableID(lab)
	return &p, nil
}

func programWhere(f models.Filter) *where {
	w := &where{}
	w.search(f.Search, "name")
	if f.Level != "" {
		w.add("level = ?", f.Level)
	}
	if f.Format != "" {
		w.add("format = ?", f.Format)
	}
	if f.LabID > 0 {
		w.add("laboratory_id = ?", f.LabID)
	}
	if f.ActiveOnly {
		w.add("is_active = 1")
	}
	return w
}

func (s Programs) List(ctx context.Context, f models.Filter) ([]models.Program, error) {
	w := programWhere(f)
	rows, err := s.r.conn.QueryRows(ctx, `SELECT `+programColumns+` FROM programs`+w.String()+` ORDER BY created DESC, id DESC`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s Programs) Count(ctx context.Context, f models.Filter) (int64, error) {
	return s.r.count(ctx, "programs", programWhere(f))
}

func (s Programs) Get(ctx context.Context, id int64) (*models.Program, error) {
	p, err := scanProgram(s.r.conn.QueryRow(ctx, `SELECT `+programColumns+` FROM programs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (s Programs) GetByName(ctx context.Context, name string) (*models.Program, error) {
	p, err := scanProgram(s.r.conn.QueryRow(ctx, `SELECT `+programColumns+` FROM programs WHERE name = ? ORDER BY id LIMIT 1`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (s Programs) Save(ctx context.Context, p *models.Program) error {
	if p == nil {
		return fmt.Errorf("program is nil")
	}

	ts := now()
	if p.ID == 0 {
		res, err := s.r.conn.Exec(ctx, `INSERT INTO programs (name, laboratory_id, image, description, level, age_min, age_max, format, duration, start_date, end_date, is_active, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.LaboratoryID, p.Image, p.Description, p.Level, p.AgeMin, p.AgeMax, p.Format, p.Duration, p.StartDate, p.EndDate, p.IsActive, ts, ts)
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

	res, err := s.r.conn.Exec(ctx, `UPDATE programs SET name = ?, laboratory_id = ?, image = ?, description = ?, level = ?, age_min = ?, age_max = ?, format = ?, duration = ?, start_date = ?, end_date = ?, is_active = ?, updated = ? WHERE id = ?`,
		p.Name, p.LaboratoryID, p.Image, p.Description, p.Level, p.AgeMin, p.AgeMax, p.Format, p.Duration, p.StartDate, p.EndDate, p.IsActive, ts, p.ID)
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

func (s Programs) Delete(ctx context.Context, id int64) error {
	return s.r.deleteByID(ctx, "programs", id)
}

func (s Programs) ToggleActive(ctx context.Context, id int64) (bool, error) {
	return s.r.toggle(ctx, "programs", "is_active", true, id)
}
