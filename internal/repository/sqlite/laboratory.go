package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

type Laboratories struct{ r *SQLiteRepo }

const labColumns = `id, name, icon, image, description, sort_order, is_active, created, updated`

func scanLab(s interface{ Scan(...any) error }) (*models.Laboratory, error) {
	var l models.Laboratory
	if err := s.Scan(&l.ID, &l.Name, &l.Icon, &l.Image, &l.Description, &l.Order, &l.IsActive, &l.Created, &l.Updated); err != nil {
		return nil, err
	}
	return &l, nil
}

func labWhere(f models.Filter) *where {
	w := &where{}
	w.search(f.Search, "name")
	if f.ActiveOnly {
		w.add("is_active = 1")
	}
	return w
}

func (s Laboratories) List(ctx context.Context, f models.Filter) ([]models.Laboratory, error) {
	w := labWhere(f)
	rows, err := s.r.conn.QueryRows(ctx, `SELECT `+labColumns+` FROM laboratories`+w.String()+` ORDER BY sort_order, id`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Laboratory
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s Laboratories) Count(ctx context.Context, f models.Filter) (int64, error) {
	return s.r.count(ctx, "laboratories", labWhere(f))
}

func (s Laboratories) Get(ctx context.Context, id int64) (*models.Laboratory, error) {
	l, err := scanLab(s.r.conn.QueryRow(ctx, `SELECT `+labColumns+` FROM laboratories WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func (s Laboratories) GetByName(ctx context.Context, name string) (*models.Laboratory, error) {
	l, err := scanLab(s.r.conn.QueryRow(ctx, `SELECT `+labColumns+` FROM laboratories WHERE name = ? ORDER BY id LIMIT 1`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func (s Laboratories) Save(ctx context.Context, l *models.Laboratory) error {
	if l == nil {
		return fmt.Errorf("laboratory is nil")
	}

	ts := now()
	if l.ID == 0 {
		res, err := s.r.conn.Exec(ctx, `INSERT INTO laboratories (name, icon, image, description, sort_order, is_active, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			l.Name, l.Icon, l.Image, l.Description, l.Order, l.IsActive, ts, ts)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		l.ID, l.Created, l.Updated = id, ts, ts
		return nil
	}

	res, err := s.r.conn.Exec(ctx, `UPDATE laboratories SET name = ?, icon = ?, image = ?, description = ?, sort_order = ?, is_active = ?, updated = ? WHERE id = ?`,
		l.Name, l.Icon, l.Image, l.Description, l.Order, l.IsActive, ts, l.ID)
	if err != nil {
		return err
	}
	if ok, err := rowsAffected(res); err != nil {
		return err
	} else if !ok {
		return apperr.ErrNotFound
	}
	l.Updated = ts
	return nil
}

func (s Laboratories) Delete(ctx context.Context, id int64) error {
	return s.r.deleteByID(ctx, "laboratories", id)
}

func (s Laboratories) ToggleActive(ctx context.Context, id int64) (bool, error) {
	return s.r.toggle(ctx, "laboratories", "is_active", true, id)
}
