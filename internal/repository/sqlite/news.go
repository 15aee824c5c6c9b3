package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

// NewsRepo persists news articles.
type NewsRepo struct{ r *SQLiteRepo }

const newsColumns = `id, title, slug, image, content, is_published, published_at, created, updated`

func scanNews(s interface{ Scan(...any) error }) (*models.News, error) {
	var n models.News
	var published sql.NullInt64
	if err := s.Scan(&n.ID, &n.Title, &n.Slug, &n.Image, &n.Content, &n.IsPublished, &published, &n.Created, &n.Updated); err != nil {
		return nil, err
	}
	n.PublishedAt = nullableID(published)
	return &n, nil
}

func newsWhere(f models.Filter) *where {
	w := &where{}
	w.search(f.Search, "title")
	if f.PublishedOnly {
		w.add("is_published = 1")
	}
	return w
}

func (s NewsRepo) List(ctx context.Context, f models.Filter) ([]models.News, error) {
	w := newsWhere(f)
	rows, err := s.r.conn.QueryRows(ctx, `SELECT `+newsColumns+` FROM news`+w.String()+` ORDER BY created DESC, id DESC`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (s NewsRepo) Count(ctx context.Context, f models.Filter) (int64, error) {
	return s.r.count(ctx, "news", newsWhere(f))
}

func (s NewsRepo) Get(ctx context.Context, id int64) (*models.News, error) {
	n, err := scanNews(s.r.conn.QueryRow(ctx, `SELECT `+newsColumns+` FROM news WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return n, err
}

func (s NewsRepo) GetBySlug(ctx context.Context, slug string) (*models.News, error) {
	n, err := scanNews(s.r.conn.QueryRow(ctx, `SELECT `+newsColumns+` FROM news WHERE slug = ?`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return n, err
}

func (s NewsRepo) Save(ctx context.Context, n *models.News) error {
	if n == nil {
		return fmt.Errorf("news is nil")
	}

	ts := now()
	if n.ID == 0 {
		res, err := s.r.conn.Exec(ctx, `INSERT INTO news (title, slug, image, content, is_published, published_at, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			n.Title, n.Slug, n.Image, n.Content, n.IsPublished, n.PublishedAt, ts, ts)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		n.ID, n.Created, n.Updated = id, ts, ts
		return nil
	}

	res, err := s.r.conn.Exec(ctx, `UPDATE news SET title = ?, slug = ?, image = ?, content = ?, is_published = ?, published_at = ?, updated = ? WHERE id = ?`,
		n.Title, n.Slug, n.Image, n.Content, n.IsPublished, n.PublishedAt, ts, n.ID)
	if err != nil {
		return err
	}
	if ok, err := rowsAffected(res); err != nil {
		return err
	} else if !ok {
		return apperr.ErrNotFound
	}
	n.Updated = ts
	return nil
}

func (s NewsRepo) Delete(ctx context.Context, id int64) error {
	return s.r.deleteByID(ctx, "news", id)
}
