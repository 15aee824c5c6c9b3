package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

type Certificates struct{ r *SQLiteRepo }

const certificateSelect = `SELECT c.id, c.user_id, c.program_id, c.title, c.certificate_id, c.issued_date, c.pdf_file, c.created, u.username, COALESCE(p.name, '') FROM certificates c JOIN users u ON u.id = c.user_id LEFT JOIN programs p ON p.id = c.program_id`

func scanCertificate(s interface{ Scan(...any) error }) (*models.Certificate, error) {
	var c models.Certificate
	var program sql.NullInt64
	if err := s.Scan(&c.ID, &c.UserID, &program, &c.Title, &c.CertificateID, &c.IssuedDate, &c.PDFFile, &c.Created, &c.Username, &c.ProgramName); err != nil {
		return nil, err
	}
	c.ProgramID = nullableID(program)
	return &c, nil
}

func certificateWhere(f models.Filter) *where {
	w := &where{}
	w.search(f.Search, "c.title", "c.certificate_id")
	if f.UserID > 0 {
		w.add("c.user_id = ?", f.UserID)
	}
	return w
}

func (s Certificates) List(ctx context.Context, f models.Filter) ([]models.Certificate, error) {
	w := certificateWhere(f)
	rows, err := s.r.conn.QueryRows(ctx, certificateSelect+w.String()+` ORDER BY c.issued_date DESC, c.id DESC`+limitClause(f.Limit), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s Certificates) Count(ctx context.Context, f models.Filter) (int64, error) {
	return s.r.count(ctx, "certificates c", certificateWhere(f))
}

func (s Certificates) Get(ctx context.Context, id int64) (*models.Certificate, error) {
	c, err := scanCertificate(s.r.conn.QueryRow(ctx, certificateSelect+` WHERE c.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s Certificates) GetByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error) {
	c, err := scanCertificate(s.r.conn.QueryRow(ctx, certificateSelect+` WHERE c.certificate_id = ?`, certificateID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s Certificates) Save(ctx context.Context, c *models.Certificate) error {
	if c == nil {
		return fmt.Errorf("certificate is nil")
	}

	if c.ID == 0 {
		ts := now()
		res, err := s.r.conn.Exec(ctx, `INSERT INTO certificates (user_id, program_id, title, certificate_id, issued_date, pdf_file, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.UserID, c.ProgramID, c.Title, c.CertificateID, c.IssuedDate, c.PDFFile, ts)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.ID, c.Created = id, ts
		return nil
	}

	res, err := s.r.conn.Exec(ctx, `UPDATE certificates SET user_id = ?, program_id = ?, title = ?, certificate_id = ?, issued_date = ?, pdf_file = ? WHERE id = ?`,
		c.UserID, c.ProgramID, c.Title, c.CertificateID, c.IssuedDate, c.PDFFile, c.ID)
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

func (s Certificates) Delete(ctx context.Context, id int64) error {
	return s.r.deleteByID(ctx, "certificates", id)
}
