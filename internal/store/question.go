package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavelanni/examlayout/internal/apperr"
	"github.com/pavelanni/examlayout/internal/model"
)

// InsertQuestion stores a question in the bank.
func (s *Store) InsertQuestion(ctx context.Context, q model.Question) (int64, error) {
	return s.conn.insertQuestion(ctx, q)
}

func (c conn) insertQuestion(ctx context.Context, q model.Question) (int64, error) {
	if q.Version == 0 {
		q.Version = 1
	}
	var id int64
	err := c.queryRow(ctx,
		`INSERT INTO questions (qtype, name, text, length, category_id, version)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		q.QType, q.Name, q.Text, q.Length, q.CategoryID, q.Version,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	return id, nil
}

// InsertQuestion stores a question inside the transaction.
func (t *txConn) InsertQuestion(ctx context.Context, q model.Question) (int64, error) {
	return t.conn.insertQuestion(ctx, q)
}

// GetQuestion returns a question by id.
func (c conn) GetQuestion(ctx context.Context, id int64) (model.Question, error) {
	var q model.Question
	err := c.queryRow(ctx,
		`SELECT id, qtype, name, text, length, category_id, version FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.QType, &q.Name, &q.Text, &q.Length, &q.CategoryID, &q.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Question{}, apperr.Newf(apperr.NotFound, "question %d not found", id)
	}
	if err != nil {
		return model.Question{}, fmt.Errorf("get question %d: %w", id, err)
	}
	return q, nil
}

// ListQuestions returns the whole bank ordered by id.
func (s *Store) ListQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := s.query(ctx, `SELECT id, qtype, name, text, length, category_id, version FROM questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QType, &q.Name, &q.Text, &q.Length, &q.CategoryID, &q.Version); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Describe resolves a question reference. A fixed reference to a question that does not
// exist, or to a version the bank does not hold, resolves to a missing question.
func (c conn) Describe(ctx context.Context, ref model.QuestionRef) (model.QuestionInfo, error) {
	switch ref.Kind {
	case model.RefRandom:
		return model.QuestionInfo{QType: model.QTypeRandom, Length: 1}, nil
	case model.RefFixed:
	default:
		return model.MissingQuestion, nil
	}
	q, err := c.GetQuestion(ctx, ref.QuestionID)
	if errors.Is(err, apperr.ErrNotFound) {
		return model.MissingQuestion, nil
	}
	if err != nil {
		return model.QuestionInfo{}, err
	}
	if ref.RequestedVersion != nil && *ref.RequestedVersion != q.Version {
		return model.MissingQuestion, nil
	}
	return model.InfoFor(q), nil
}
