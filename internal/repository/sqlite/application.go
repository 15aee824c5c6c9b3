package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

type Applications struct{ r *SQLiteRepo }

const applicationSelect = `SELECT a.id, a.user_id, a.program_id, a.status, a.message, a.created, a.updated, u.username, p.name FROM applications a JOIN users u ON u.id = a.user_id JOIN programs p ON p.id = a.program_id`

func scanApplication(s interface{ Scan(...any) error }) (*models.Application, error) {
	var a models.Application
	if err := s.Scan(&a.ID, &a.UserID, &a.ProgramID, &a.Status, &a.Message, &a.Created, &a.Updated, &a.Username, &a.ProgramName); err != nil {
		return nil, err
	}
	return &a, nil
}

func applicationWhere(f models.Filter) *where {
	w := &where{}
	w.search(f.Search, "u.username", "p.name")
	if f.Status != "" {
		w.add("a.status = ?", f.Status)
	}
	if f.UserID > 0 {
		w.add("a.user_id = ?", f.UserID)
	}
	return w
}

func (s Applications) List(ctx context.Context, f models.Filter) ([]models.Application, error) {
	w := applicationWhere(f)
	rows, err := s.r.conn.QueryRows(ctx, applicationSelect+w.String()+` ORDER BY a.created DESC, a.id DESC`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s Applications) Count(ctx context.Context, f models.Filter) (int64, error) {
	w := applicationWhere(f)
	var n int64
	err := s.r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM applications a JOIN users u ON u.id = a.user_id JOIN programs p ON p.id = a.program_id`+w.String(), w.args...).Scan(&n)
	return n, err
}

func (s Applications) Get(ctx context.Context, id int64) (*models.Application, error) {
	a, err := scanApplication(s.r.conn.QueryRow(ctx, applicationSelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s Applications) Exists(ctx context.Context, userID, programID int64) (bool, error) {
	var n int
	if err := s.r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM applications WHERE user_id = ? AND program_id = ?`, userID, programID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateIfAbsent runs the duplicate check and the insert as one statement so
// two concurrent submissions cannot both succeed.
func (s Applications) CreateIfAbsent(ctx context.Context, a *models.Application) (bool, error) {
	if a == nil {
		return false, fmt.Errorf("application is nil")
	}
	if a.Status == "" {
		a.Status = models.StatusPending
	}

	ts := now()
	res, err := s.r.conn.Exec(ctx, `INSERT INTO applications (user_id, program_id, status, message, created, updated) SELECT ?, ?, ?, ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM applications WHERE user_id = ? AND program_id = ?)`,
		a.UserID, a.ProgramID, a.Status, a.Message, ts, ts, a.UserID, a.ProgramID)
	if err != nil {
		return false, err
	}
	created, err := rowsAffected(res)
	if err != nil || !created {
		return false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, err
	}
	a.ID, a.Created, a.Updated = id, ts, ts
	return true, nil
}

func (s Applications) Save(ctx context.Context, a *models.Application) error {
	if a == nil {
		return fmt.Errorf("application is nil")
	}
	if a.ID == 0 {
		created, err := s.CreateIfAbsent(ctx, a)
		if err != nil {
			return err
		}
		if !created {
			return apperr.Precondition("application already exists for this program")
		}
		return nil
	}

	ts := now()
	res, err := s.r.conn.Exec(ctx, `UPDATE applications SET user_id = ?, program_id = ?, status = ?, message = ?, updated = ? WHERE id = ?`,
		a.UserID, a.ProgramID, a.Status, a.Message, ts, a.ID)
	if err != nil {
		return err
	}
	if ok, err := rowsAffected(res); err != nil {
		return err
	} else if !ok {
		return apperr.ErrNotFound
	}
	a.Updated = ts
	return nil
}

func (s Applications) SetStatus(ctx context.Context, id int64, status models.ApplicationStatus) error {
	res, err := s.r.conn.Exec(ctx, `UPDATE applications SET status = ?, updated = ? WHERE id = ?`, status, now(), id)
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

func (s Applications) Delete(ctx context.Context, id int64) error {
	return s.r.deleteByID(ctx, "applications", id)
}
