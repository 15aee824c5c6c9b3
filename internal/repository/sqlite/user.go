package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

// Users persists accounts.
type Users struct{ r *SQLiteRepo }

const userColumns = `id, username, password_hash, role, first_name, last_name, email, phone, avatar, bio, birth_date, is_active, is_superuser, created, updated`

func scanUser(s interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Avatar, &u.Bio, &u.BirthDate, &u.IsActive, &u.IsSuperuser, &u.Created, &u.Updated); err != nil {
		return nil, err
	}
	return &u, nil
}

func userWhere(f models.Filter) *where {
	w := &where{}
	w.search(f.Search, "username", "first_name", "last_name")
	if f.Role != "" {
		w.add("role = ?", f.Role)
	}
	if f.ActiveOnly {
		w.add("is_active = 1")
	}
	return w
}

func (s Users) List(ctx context.Context, f models.Filter) ([]models.User, error) {
	w := userWhere(f)
	rows, err := s.r.conn.QueryRows(ctx, `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY id`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s Users) Count(ctx context.Context, f models.Filter) (int64, error) {
	return s.r.count(ctx, "users", userWhere(f))
}

func (s Users) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (s Users) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(s.r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (s Users) Save(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	if u.Role == "" {
		u.Role = models.RoleStudent
	}

	ts := now()
	if u.ID == 0 {
		res, err := s.r.conn.Exec(ctx, `INSERT INTO users (username, password_hash, role, first_name, last_name, email, phone, avatar, bio, birth_date, is_active, is_superuser, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.Username, u.PasswordHash, u.Role, u.FirstName, u.LastName, u.Email, u.Phone, u.Avatar, u.Bio, u.BirthDate, u.IsActive, u.IsSuperuser, ts, ts)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		u.ID, u.Created, u.Updated = id, ts, ts
		return nil
	}

	res, err := s.r.conn.Exec(ctx, `UPDATE users SET username = ?, password_hash = ?, role = ?, first_name = ?, last_name = ?, email = ?, phone = ?, avatar = ?, bio = ?, birth_date = ?, is_active = ?, is_superuser = ?, updated = ? WHERE id = ?`,
		u.Username, u.PasswordHash, u.Role, u.FirstName, u.LastName, u.Email, u.Phone, u.Avatar, u.Bio, u.BirthDate, u.IsActive, u.IsSuperuser, ts, u.ID)
	if err != nil {
		return err
	}
	if ok, err := rowsAffected(res); err != nil {
		return err
	} else if !ok {
		return apperr.ErrNotFound
	}
	u.Updated = ts
	return nil
}

func (s Users) Delete(ctx context.Context, id int64) error {
	return s.r.deleteByID(ctx, "users", id)
}
