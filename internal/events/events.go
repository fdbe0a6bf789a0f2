// Package events carries the audit trail of structure edits to interested collaborators.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Type names a structure change.
type Type string

const (
	SlotCreated                Type = "slot_created"
	SlotMoved                  Type = "slot_moved"
	SlotDeleted                Type = "slot_deleted"
	PageBreakCreated           Type = "page_break_created"
	PageBreakDeleted           Type = "page_break_deleted"
	ExamRepaginated            Type = "exam_repaginated"
	SectionCreated             Type = "section_created"
	SectionDeleted             Type = "section_deleted"
	SectionTitleUpdated        Type = "section_title_updated"
	SectionShuffleUpdated      Type = "section_shuffle_updated"
	SlotMarkUpdated            Type = "slot_mark_updated"
	SlotRequirePreviousUpdated Type = "slot_requireprevious_updated"
	SlotDisplayNumberUpdated   Type = "slot_displaynumber_updated"
	SlotQuestionReplaced       Type = "slot_question_replaced"
)

// Event is one successful structure change.
type Event struct {
	ID     string         `json:"id"`
	Type   Type           `json:"type"`
	ExamID int64          `json:"exam_id"`
	At     time.Time      `json:"at"`
	Data   map[string]any `json:"data,omitempty"`
}

// New returns an event with a fresh id, stamped now.
func New(typ Type, examID int64, data map[string]any) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   typ,
		ExamID: examID,
		At:     time.Now().UTC(),
		Data:   data,
	}
}

// Sink receives events after the change they describe has been committed.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// LogSink writes every event to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink logging at info level. A nil logger means slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, ev Event) error {
	attrs := []any{"id", ev.ID, "type", string(ev.Type), "exam_id", ev.ExamID}
	for k, v := range ev.Data {
		attrs = append(attrs, k, v)
	}
	s.logger.InfoContext(ctx, "structure changed", attrs...)
	return nil
}

// Multi delivers each event to every sink, even when an earlier one fails.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(context.Context, Event) error { return nil }
