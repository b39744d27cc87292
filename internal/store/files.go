package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/starford/almanac/internal/apperr"
)

// FileChecksum returns the checksum recorded for an ingested file, or "" when
// the file has never been ingested.
func (db *DB) FileChecksum(ctx context.Context, path string) (string, error) {
	var cs string
	err := db.conn.QueryRowContext(ctx, `SELECT checksum FROM ingested_files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Store("ingested_files.get", err)
	}
	return cs, nil
}

// SetFileChecksum records that path was ingested with the given checksum.
func (db *DB) SetFileChecksum(ctx context.Context, path, checksum string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO ingested_files (path, checksum, ingested_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			checksum    = excluded.checksum,
			ingested_at = excluded.ingested_at
	`, path, checksum)
	if err != nil {
		return apperr.Store("ingested_files.upsert", err)
	}
	return nil
}
