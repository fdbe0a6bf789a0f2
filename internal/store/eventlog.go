package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/examlayout/internal/events"
)

// Emit appends an event to the event log, making the store an events.Sink.
func (s *Store) Emit(ctx context.Context, ev events.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("encode event data: %w", err)
	}
	_, err = s.exec(ctx,
		`INSERT INTO event_log (event_id, exam_id, typ, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.ExamID, string(ev.Type), string(data), ev.At,
	)
	if err != nil {
		return fmt.Errorf("append event %s: %w", ev.Type, err)
	}
	return nil
}

// ListEvents returns an exam's events, oldest first. limit <= 0 returns all of them.
func (s *Store) ListEvents(ctx context.Context, examID int64, limit int) ([]events.Event, error) {
	query := `SELECT event_id, exam_id, typ, data, created_at FROM event_log WHERE exam_id = ? ORDER BY seq`
	args := []any{examID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []events.Event
	for rows.Next() {
		var ev events.Event
		var typ, data string
		var at time.Time
		if err := rows.Scan(&ev.ID, &ev.ExamID, &typ, &data, &at); err != nil {
			return nil, err
		}
		ev.Type = events.Type(typ)
		ev.At = at.UTC()
		if data != "" && data != "null" {
			if err := json.Unmarshal([]byte(data), &ev.Data); err != nil {
				return nil, fmt.Errorf("decode event %s: %w", ev.ID, err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

var _ events.Sink = (*Store)(nil)
