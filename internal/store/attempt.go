package store

import (
	"context"
	"fmt"
	"time"
)

// RecordAttempt notes that a learner started the exam. From then on its structure is locked.
func (s *Store) RecordAttempt(ctx context.Context, examID int64, userName string) (int64, error) {
	if _, err := s.GetExam(ctx, examID); err != nil {
		return 0, err
	}
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO attempts (exam_id, user_name, started_at) VALUES (?, ?, ?) RETURNING id`,
		examID, userName, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("record attempt: %w", err)
	}
	return id, nil
}

// HasAnyAttempt reports whether anyone has started the exam.
func (c conn) HasAnyAttempt(ctx context.Context, examID int64) (bool, error) {
	var n int
	err := c.queryRow(ctx, `SELECT COUNT(*) FROM attempts WHERE exam_id = ?`, examID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
