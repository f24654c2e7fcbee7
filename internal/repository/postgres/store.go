package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"whistlebox/internal/repository"
)

// Store is a PostgreSQL implementation of repository.Store.
// It uses database/sql with parameterized queries and contains no business logic.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store on an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var (
	_ repository.Store = (*Store)(nil)
	_ repository.Tx    = (*Tx)(nil)
)

// WithTx runs fn in one database transaction. The transaction is committed
// only when fn returns nil; errors and panics roll it back.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Tx implements repository.Tx on a *sql.Tx.
type Tx struct {
	tx *sql.Tx
}

// scanOne runs a query expected to match at most one row. Zero rows yield
// sql.ErrNoRows, more than one yields repository.ErrMultipleRows.
func scanOne[T any](ctx context.Context, tx *sql.Tx, scan func(*sql.Rows) (T, error), q string, args ...any) (*T, error) {
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out *T
	for rows.Next() {
		if out != nil {
			return nil, repository.ErrMultipleRows
		}
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = &v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, sql.ErrNoRows
	}
	return out, nil
}

func scanID(rows *sql.Rows) (string, error) {
	var id string
	err := rows.Scan(&id)
	return id, err
}

// parentID resolves the InternalTip id referenced by a child row.
func (t *Tx) parentID(ctx context.Context, q, key string) (string, error) {
	id, err := scanOne(ctx, t.tx, scanID, q, key)
	if err != nil {
		return "", err
	}
	return *id, nil
}

func scanAll[T any](ctx context.Context, tx *sql.Tx, scan func(*sql.Rows) (T, error), q string, args ...any) ([]T, error) {
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (t *Tx) exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return res.RowsAffected()
}

// execOne runs an update that must touch exactly one row.
func (t *Tx) execOne(ctx context.Context, q string, args ...any) error {
	n, err := t.exec(ctx, q, args...)
	if err != nil {
		return err
	}
	switch {
	case n == 0:
		return sql.ErrNoRows
	case n > 1:
		return repository.ErrMultipleRows
	}
	return nil
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", repository.ErrDuplicateKey, pgErr.ConstraintName)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", repository.ErrForeignKey, pgErr.ConstraintName)
	}
	return err
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
