package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

type Events struct{ r *SQLiteRepo }

const eventColumns = `id, title, event_type, image, description, date, location, is_active, created, updated`

func scanEvent(s interface{ Scan(...any) error }) (*models.Event, error) {
	var e models.Event
	if err := s.Scan(&e.ID, &e.Title, &e.EventType, &e.Image, &e.Description, &e.Date, &e.Location, &e.IsActive, &e.Created, &e.Updated); err != nil {
		return nil, err
	}
	return &e, nil
}

func eventWhere(f models.Filter) *where {
	w := &where{}
	w.search(f.Search, "title")
	if f.Type != "" {
		w.add("event_type = ?", f.Type)
	}
	if f.ActiveOnly {
		w.add("is_active = 1")
	}
	if f.UpcomingFrom > 0 {
		w.add("date >= ?", f.UpcomingFrom)
	}
	return w
}

// List orders by date, newest first; upcoming-only queries list the soonest first.
func (s Events) List(ctx context.Context, f models.Filter) ([]models.Event, error) {
	w := eventWhere(f)
	order := ` ORDER BY date DESC, id DESC`
	if f.UpcomingFrom > 0 {
		order = ` ORDER BY date, id`
	}
	rows, err := s.r.conn.QueryRows(ctx, `SELECT `+eventColumns+` FROM events`+w.String()+order+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s Events) Count(ctx context.Context, f models.Filter) (int64, error) {
	return s.r.count(ctx, "events", eventWhere(f))
}

func (s Events) Get(ctx context.Context, id int64) (*models.Event, error) {
	e, err := scanEvent(s.r.conn.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (s Events) GetByTitle(ctx context.Context, title string) (*models.Event, error) {
	e, err := scanEvent(s.r.conn.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE title = ? ORDER BY id LIMIT 1`, title))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (s Events) Save(ctx context.Context, e *models.Event) error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}

	ts := now()
	if e.ID == 0 {
		res, err := s.r.conn.Exec(ctx, `INSERT INTO events (title, event_type, image, description, date, location, is_active, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Title, e.EventType, e.Image, e.Description, e.Date, e.Location, e.IsActive, ts, ts)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		e.ID, e.Created, e.Updated = id, ts, ts
		return nil
	}

	res, err := s.r.conn.Exec(ctx, `UPDATE events SET title = ?, event_type = ?, image = ?, description = ?, date = ?, location = ?, is_active = ?, updated = ? WHERE id = ?`,
		e.Title, e.EventType, e.Image, e.Description, e.Date, e.Location, e.IsActive, ts, e.ID)
	if err != nil {
		return err
	}
	if ok, err := rowsAffected(res); err != nil {
		return err
	} else if !ok {
		return apperr.ErrNotFound
	}
	e.Updated = ts
	return nil
}

func (s Events) Delete(ctx context.Context, id int64) error {
	return s.r.deleteByID(ctx, "events", id)
}

func (s Events) ToggleActive(ctx context.Context, id int64) (bool, error) {
	return s.r.toggle(ctx, "events", "is_active", true, id)
}
