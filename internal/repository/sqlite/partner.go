package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

type Partners struct{ r *SQLiteRepo }

const partnerColumns = `id, name, logo, website, sort_order, is_active, created`

func scanPartner(s interface{ Scan(...any) error }) (*models.Partner, error) {
	var p models.Partner
	if err := s.Scan(&p.ID, &p.Name, &p.Logo, &p.Website, &p.Order, &p.IsActive, &p.Created); err != nil {
		return nil, err
	}
	return &p, nil
}

func partnerWhere(f models.Filter) *where {
	w := &where{}
	w.search(f.Search, "name")
	if f.ActiveOnly {
		w.add("is_active = 1")
	}
	return w
}

func (s Partners) List(ctx context.Context, f models.Filter) ([]models.Partner, error) {
	w := partnerWhere(f)
	rows, err := s.r.conn.QueryRows(ctx, `SELECT `+partnerColumns+` FROM partners`+w.String()+` ORDER BY sort_order, id`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s Partners) Count(ctx context.Context, f models.Filter) (int64, error) {
	return s.r.count(ctx, "partners", partnerWhere(f))
}

func (s Partners) Get(ctx context.Context, id int64) (*models.Partner, error) {
	p, err := scanPartner(s.r.conn.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (s Partners) GetByName(ctx context.Context, name string) (*models.Partner, error) {
	p, err := scanPartner(s.r.conn.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE name = ? ORDER BY id LIMIT 1`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (s Partners) Save(ctx context.Context, p *models.Partner) error {
	if p == nil {
		return fmt.Errorf("partner is nil")
	}

	if p.ID == 0 {
		ts := now()
		res, err := s.r.conn.Exec(ctx, `INSERT INTO partners (name, logo, website, sort_order, is_active, created) VALUES (?, ?, ?, ?, ?, ?)`,
			p.Name, p.Logo, p.Website, p.Order, p.IsActive, ts)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID, p.Created = id, ts
		return nil
	}

	res, err := s.r.conn.Exec(ctx, `UPDATE partners SET name = ?, logo = ?, website = ?, sort_order = ?, is_active = ? WHERE id = ?`,
		p.Name, p.Logo, p.Website, p.Order, p.IsActive, p.ID)
	if err != nil {
		return err
	}
	if ok, err := rowsAffected(res); err != nil {
		return err
	} else if !ok {
		return apperr.ErrNotFound
	}
	return nil
}

func (s Partners) Delete(ctx context.Context, id int64) error {
	return s.r.deleteByID(ctx, "partners", id)
}

func (s Partners) ToggleActive(ctx context.Context, id int64) (bool, error) {
	return s.r.toggle(ctx, "partners", "is_active", false, id)
}
