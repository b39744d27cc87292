package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
)

// Repository is the owner-scoped CRUD surface shared by every record type.
type Repository[T models.Record] interface {
	Insert(ctx context.Context, rec T) error
	Update(ctx context.Context, rec T) error
	Get(ctx context.Context, userID, id string) (T, error)
	List(ctx context.Context, userID string) ([]T, error)
	Delete(ctx context.Context, userID, id string) error
}

// table maps one record type onto a SQL table. The meta columns (id, user_id,
// created_at, updated_at) come first and are handled here; cols lists the rest.
type table[T models.Record] struct {
	name   string
	cols   []string
	alloc  func() T
	values func(T) []any
	dest   func(T) []any

	// insertOnly columns are written on insert and skipped by update.
	insertOnly map[string]bool
}

var metaCols = []string{"id", "user_id", "created_at", "updated_at"}

func (t *table[T]) selectSQL() string {
	return "SELECT " + strings.Join(append(metaCols, t.cols...), ", ") + " FROM " + t.name
}

func (t *table[T]) insert(ctx context.Context, q queryer, rec T) error {
	m := rec.Base()
	cols := append(append([]string{}, metaCols...), t.cols...)
	args := append([]any{m.ID, m.UserID, m.CreatedAt, m.UpdatedAt}, t.values(rec)...)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(cols, ", "), placeholders(len(cols)))
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return apperr.Store(t.name+".insert", err)
	}
	return nil
}

// update overwrites every non-identity column except the insertOnly ones.
// created_at is never written.
func (t *table[T]) update(ctx context.Context, q queryer, rec T) error {
	m := rec.Base()
	set := make([]string, 0, len(t.cols)+1)
	set = append(set, "updated_at = ?")
	args := []any{m.UpdatedAt}
	vals := t.values(rec)
	for i, c := range t.cols {
		if t.insertOnly[c] {
			continue
		}
		set = append(set, c+" = ?")
		args = append(args, vals[i])
	}
	args = append(args, m.ID, m.UserID)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND user_id = ?", t.name, strings.Join(set, ", "))
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.Store(t.name+".update", err)
	}
	return t.expectRow(res, m.ID)
}

func (t *table[T]) get(ctx context.Context, q queryer, userID, id string) (T, error) {
	row := q.QueryRowContext(ctx, t.selectSQL()+" WHERE id = ? AND user_id = ?", id, userID)
	rec, err := t.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", t.name, id, apperr.ErrNotFound)
	}
	if err != nil {
		var zero T
		return zero, apperr.Store(t.name+".get", err)
	}
	return rec, nil
}

func (t *table[T]) list(ctx context.Context, q queryer, userID string) ([]T, error) {
	rows, err := q.QueryContext(ctx, t.selectSQL()+" WHERE user_id = ? ORDER BY updated_at DESC", userID)
	if err != nil {
		return nil, apperr.Store(t.name+".list", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			return nil, apperr.Store(t.name+".list", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(t.name+".list", err)
	}
	return out, nil
}

func (t *table[T]) delete(ctx context.Context, q queryer, userID, id string) error {
	res, err := q.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return apperr.Store(t.name+".delete", err)
	}
	return t.expectRow(res, id)
}

func (t *table[T]) scan(s scanner) (T, error) {
	rec := t.alloc()
	m := rec.Base()
	dest := append([]any{&m.ID, &m.UserID, &m.CreatedAt, &m.UpdatedAt}, t.dest(rec)...)
	if err := s.Scan(dest...); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

func (t *table[T]) expectRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store(t.name+".rows", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", t.name, id, apperr.ErrNotFound)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// plainRepo adapts a table with no child rows to Repository.
type plainRepo[T models.Record] struct {
	db *DB
	t  *table[T]
}

func (r *plainRepo[T]) Insert(ctx context.Context, rec T) error {
	return r.t.insert(ctx, r.db.conn, rec)
}

func (r *plainRepo[T]) Update(ctx context.Context, rec T) error {
	return r.t.update(ctx, r.db.conn, rec)
}

func (r *plainRepo[T]) Get(ctx context.Context, userID, id string) (T, error) {
	return r.t.get(ctx, r.db.conn, userID, id)
}

func (r *plainRepo[T]) List(ctx context.Context, userID string) ([]T, error) {
	return r.t.list(ctx, r.db.conn, userID)
}

func (r *plainRepo[T]) Delete(ctx context.Context, userID, id string) error {
	return r.t.delete(ctx, r.db.conn, userID, id)
}
