package store

import (
	"context"
	"fmt"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
)

// NoteRepo stores notes and their version snapshots.
type NoteRepo struct {
	db *DB
}

// Notes returns the note repository.
func (db *DB) Notes() *NoteRepo { return &NoteRepo{db: db} }

var _ Repository[*models.Note] = (*NoteRepo)(nil)

func (r *NoteRepo) Insert(ctx context.Context, n *models.Note) error {
	return notesTable.insert(ctx, r.db.conn, n)
}

// Update overwrites the note row. It does not write any snapshot and leaves
// view_count alone; n.ViewCount is refreshed from the stored row.
func (r *NoteRepo) Update(ctx context.Context, n *models.Note) error {
	if err := notesTable.update(ctx, r.db.conn, n); err != nil {
		return err
	}
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT view_count FROM notes WHERE id = ? AND user_id = ?`, n.ID, n.UserID).Scan(&n.ViewCount)
	if err != nil {
		return apperr.Store("notes.view_count", err)
	}
	return nil
}

func (r *NoteRepo) Get(ctx context.Context, userID, id string) (*models.Note, error) {
	return notesTable.get(ctx, r.db.conn, userID, id)
}

func (r *NoteRepo) List(ctx context.Context, userID string) ([]*models.Note, error) {
	return notesTable.list(ctx, r.db.conn, userID)
}

// Delete removes the note and every snapshot of it in one transaction.
func (r *NoteRepo) Delete(ctx context.Context, userID, id string) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Store("notes.begin", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		DELETE FROM note_versions
		WHERE note_id IN (SELECT id FROM notes WHERE id = ? AND user_id = ?)`, id, userID)
	if err != nil {
		return apperr.Store("note_versions.delete", err)
	}
	if err := notesTable.delete(ctx, tx, userID, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Store("notes.commit", err)
	}
	return nil
}

// InsertVersion appends a snapshot. Snapshots are never updated.
func (r *NoteRepo) InsertVersion(ctx context.Context, v *models.NoteVersion) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO note_versions (id, note_id, version_number, title, content, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.NoteID, v.VersionNumber, v.Title, v.Content, v.ContentHash, v.CreatedAt)
	if err != nil {
		return apperr.Store("note_versions.insert", err)
	}
	return nil
}

// ListVersions returns a note's snapshots, newest version first.
func (r *NoteRepo) ListVersions(ctx context.Context, noteID string) ([]models.NoteVersion, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT id, note_id, version_number, title, content, content_hash, created_at
		FROM note_versions WHERE note_id = ?
		ORDER BY version_number DESC, created_at DESC`, noteID)
	if err != nil {
		return nil, apperr.Store("note_versions.list", err)
	}
	defer rows.Close()

	out := []models.NoteVersion{}
	for rows.Next() {
		var v models.NoteVersion
		if err := rows.Scan(&v.ID, &v.NoteID, &v.VersionNumber, &v.Title, &v.Content, &v.ContentHash, &v.CreatedAt); err != nil {
			return nil, apperr.Store("note_versions.list", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("note_versions.list", err)
	}
	return out, nil
}

// IncrementViews bumps view_count without touching version or updated_at.
func (r *NoteRepo) IncrementViews(ctx context.Context, userID, id string) error {
	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE notes SET view_count = view_count + 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return apperr.Store("notes.view", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store("notes.view", err)
	}
	if n == 0 {
		return fmt.Errorf("notes %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
