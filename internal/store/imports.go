package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ImportedFile records which layout file produced which exam.
type ImportedFile struct {
	Path       string
	Hash       string
	ExamID     int64
	ImportedAt time.Time
}

// GetImportedFile returns the import record for a path, or nil if the path was never imported.
func (s *Store) GetImportedFile(ctx context.Context, path string) (*ImportedFile, error) {
	var f ImportedFile
	err := s.queryRow(ctx,
		`SELECT path, hash, exam_id, imported_at FROM imported_files WHERE path = ?`, path,
	).Scan(&f.Path, &f.Hash, &f.ExamID, &f.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// SetImportedFile upserts the import record for a path.
func (s *Store) SetImportedFile(ctx context.Context, f ImportedFile) error {
	if f.ImportedAt.IsZero() {
		f.ImportedAt = time.Now().UTC()
	}
	_, err := s.exec(ctx,
		`INSERT INTO imported_files (path, hash, exam_id, imported_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (path) DO UPDATE SET hash = excluded.hash, exam_id = excluded.exam_id, imported_at = excluded.imported_at`,
		f.Path, f.Hash, f.ExamID, f.ImportedAt,
	)
	return err
}
