package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/garnizeh/innohub/internal/db"
	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/repository"
)

// SQLiteRepo is the shared handle behind the per-entity repositories.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure the per-entity repositories implement the public interfaces.
var _ repository.UserRepo = Users{}
var _ repository.LaboratoryRepo = Laboratories{}
var _ repository.ProgramRepo = Programs{}
var _ repository.EventRepo = Events{}
var _ repository.ProjectRepo = Projects{}
var _ repository.PartnerRepo = Partners{}
var _ repository.ApplicationRepo = Applications{}
var _ repository.CertificateRepo = Certificates{}
var _ repository.NewsRepo = NewsRepo{}
var _ repository.SettingsRepo = Settings{}

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func (r *SQLiteRepo) Users() Users               { return Users{r} }
func (r *SQLiteRepo) Laboratories() Laboratories { return Laboratories{r} }
func (r *SQLiteRepo) Programs() Programs         { return Programs{r} }
func (r *SQLiteRepo) Events() Events             { return Events{r} }
func (r *SQLiteRepo) Projects() Projects         { return Projects{r} }
func (r *SQLiteRepo) Partners() Partners         { return Partners{r} }
func (r *SQLiteRepo) Applications() Applications { return Applications{r} }
func (r *SQLiteRepo) Certificates() Certificates { return Certificates{r} }
func (r *SQLiteRepo) News() NewsRepo             { return NewsRepo{r} }
func (r *SQLiteRepo) Settings() Settings         { return Settings{r} }

func now() int64 {
	return time.Now().UTC().UnixMilli()
}

// where accumulates AND-ed conditions and their arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

// search adds a case-insensitive substring match over any of columns.
func (w *where) search(term string, columns ...string) {
	if term == "" {
		return
	}
	pattern := likePattern(term)
	ors := make([]string, len(columns))
	for i, c := range columns {
		ors[i] = "fold(" + c + `) LIKE ? ESCAPE '\'`
		w.args = append(w.args, pattern)
	}
	w.clauses = append(w.clauses, "("+strings.Join(ors, " OR ")+")")
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(limit)
}

func nullableID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// toggle flips a boolean column and returns its new value.
func (r *SQLiteRepo) toggle(ctx context.Context, table, column string, touch bool, id int64) (bool, error) {
	set := column + " = NOT " + column
	args := []any{}
	if touch {
		set += ", updated = ?"
		args = append(args, now())
	}
	args = append(args, id)

	var v bool
	err := r.conn.QueryRow(ctx, `UPDATE `+table+` SET `+set+` WHERE id = ? RETURNING `+column, args...).Scan(&v)
	if err == sql.ErrNoRows {
		return false, apperr.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggle %s.%s: %w", table, column, err)
	}
	r.logger.Debug("flag toggled", slog.String("table", table), slog.String("column", column), slog.Int64("id", id), slog.Bool("value", v))
	return v, nil
}

func (r *SQLiteRepo) count(ctx context.Context, table string, w *where) (int64, error) {
	var n int64
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+w.String(), w.args...).Scan(&n)
	return n, err
}

func (r *SQLiteRepo) deleteByID(ctx context.Context, table string, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	return err
}
