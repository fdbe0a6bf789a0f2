package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/examlayout/internal/apperr"
	"github.com/pavelanni/examlayout/internal/model"
)

// CreateExam stores a new exam together with its first, empty section.
func (s *Store) CreateExam(ctx context.Context, exam model.Exam) (model.Exam, error) {
	if exam.Navigation == "" {
		exam.Navigation = model.NavFree
	}
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = time.Now().UTC()
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Exam{}, err
	}
	defer sqlTx.Rollback()
	c := conn{q: sqlTx, driver: s.driver, inTx: true}

	err = c.queryRow(ctx,
		`INSERT INTO exams (name, questions_per_page, navigation, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		exam.Name, exam.QuestionsPerPage, string(exam.Navigation), exam.CreatedAt,
	).Scan(&exam.ID)
	if err != nil {
		return model.Exam{}, fmt.Errorf("insert exam: %w", err)
	}
	if _, err := c.exec(ctx,
		`INSERT INTO exam_sections (exam_id, heading, first_slot, shuffle) VALUES (?, '', 1, ?)`,
		exam.ID, false,
	); err != nil {
		return model.Exam{}, fmt.Errorf("insert first section: %w", err)
	}
	return exam, sqlTx.Commit()
}

// GetExam returns one exam. Inside a postgres transaction the row is locked until commit.
func (c conn) GetExam(ctx context.Context, examID int64) (model.Exam, error) {
	query := `SELECT id, name, questions_per_page, navigation, created_at FROM exams WHERE id = ?`
	if c.inTx && c.driver == DriverPostgres {
		query += ` FOR UPDATE`
	}
	var e model.Exam
	var nav string
	err := c.queryRow(ctx, query, examID).Scan(&e.ID, &e.Name, &e.QuestionsPerPage, &nav, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Exam{}, apperr.Newf(apperr.NotFound, "exam %d not found", examID)
	}
	if err != nil {
		return model.Exam{}, fmt.Errorf("get exam %d: %w", examID, err)
	}
	e.Navigation = model.Navigation(nav)
	return e, nil
}

// ListExams returns all exams ordered by id.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	rows, err := s.query(ctx, `SELECT id, name, questions_per_page, navigation, created_at FROM exams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		var nav string
		if err := rows.Scan(&e.ID, &e.Name, &e.QuestionsPerPage, &nav, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Navigation = model.Navigation(nav)
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// DeleteExam removes an exam with its slots, sections, attempts and import records.
func (s *Store) DeleteExam(ctx context.Context, examID int64) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()
	c := conn{q: sqlTx, driver: s.driver, inTx: true}

	stmts := []string{
		`DELETE FROM slot_question_refs WHERE slot_id IN (SELECT id FROM exam_slots WHERE exam_id = ?)`,
		`DELETE FROM exam_slots WHERE exam_id = ?`,
		`DELETE FROM exam_sections WHERE exam_id = ?`,
		`DELETE FROM attempts WHERE exam_id = ?`,
		`DELETE FROM imported_files WHERE exam_id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := c.exec(ctx, stmt, examID); err != nil {
			return fmt.Errorf("delete exam %d: %w", examID, err)
		}
	}
	res, err := c.exec(ctx, `DELETE FROM exams WHERE id = ?`, examID)
	if err != nil {
		return fmt.Errorf("delete exam %d: %w", examID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.NotFound, "exam %d not found", examID)
	}
	return sqlTx.Commit()
}
