// Package editor runs structure operations against the slot store: one transaction per
// operation, an event per change, and a freshly numbered view as the result.
package editor

import (
	"context"
	"log/slog"

	"github.com/pavelanni/examlayout/internal/events"
	"github.com/pavelanni/examlayout/internal/i18n"
	"github.com/pavelanni/examlayout/internal/model"
	"github.com/pavelanni/examlayout/internal/structure"
)

// Store is what the editor needs from persistence.
type Store interface {
	structure.SlotStore
	CreateExam(ctx context.Context, exam model.Exam) (model.Exam, error)
	DeleteExam(ctx context.Context, examID int64) error
}

// Editor applies structure operations.
type Editor struct {
	store Store
	sink  events.Sink
}

// New returns an editor. A nil sink discards events.
func New(store Store, sink events.Sink) *Editor {
	if sink == nil {
		sink = events.Discard{}
	}
	return &Editor{store: store, sink: sink}
}

// describeFunc builds the events for a committed change once stored ids are known.
type describeFunc func(res structure.ApplyResult) []events.Event

// op changes st and says how to describe the change.
type op func(ctx context.Context, tx structure.Tx, st *structure.Structure) (describeFunc, error)

// mutate loads the exam inside one transaction, checks the edit lock, runs fn and writes
// the resulting delta. Events go out after commit; a failing sink does not undo the edit.
func (e *Editor) mutate(ctx context.Context, examID int64, fn op) (model.StructureView, error) {
	var evs []events.Event
	err := e.store.InTx(ctx, func(tx structure.Tx) error {
		st, err := structure.Load(ctx, tx, examID)
		if err != nil {
			return err
		}
		if err := st.CheckCanBeEdited(); err != nil {
			return err
		}
		describe, err := fn(ctx, tx, st)
		if err != nil {
			return err
		}
		d := st.Delta()
		if d.Empty() {
			return nil
		}
		res, err := tx.ApplyDelta(ctx, examID, d)
		if err != nil {
			return err
		}
		if describe != nil {
			evs = describe(res)
		}
		return nil
	})
	if err != nil {
		return model.StructureView{}, err
	}
	e.emit(ctx, evs)
	return e.View(ctx, examID)
}

func (e *Editor) emit(ctx context.Context, evs []events.Event) {
	for _, ev := range evs {
		if err := e.sink.Emit(ctx, ev); err != nil {
			slog.Warn("failed to emit event", "type", ev.Type, "exam_id", ev.ExamID, "error", err)
		}
	}
}

// CreateExam creates an empty exam with its first section.
func (e *Editor) CreateExam(ctx context.Context, exam model.Exam) (model.StructureView, error) {
	created, err := e.store.CreateExam(ctx, exam)
	if err != nil {
		return model.StructureView{}, err
	}
	slog.Info("exam created", "exam_id", created.ID, "name", created.Name)
	return e.View(ctx, created.ID)
}

// AddSlot adds a question to the exam. Page 0 appends; see structure.AddSlot.
func (e *Editor) AddSlot(ctx context.Context, examID int64, page int, ref model.QuestionRef, maxMark float64) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(ctx context.Context, tx structure.Tx, st *structure.Structure) (describeFunc, error) {
		info, err := tx.Describe(ctx, ref)
		if err != nil {
			return nil, err
		}
		sl, err := st.AddSlot(page, ref, maxMark, info)
		if err != nil {
			return nil, err
		}
		return func(res structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.SlotCreated, examID, map[string]any{
				"slot_id":  res.SlotID(sl.ID),
				"position": sl.Position,
				"page":     sl.Page,
				"qtype":    info.QType,
			})}
		}, nil
	})
}

// MoveSlot moves a slot after afterID (0 for the start) onto page.
func (e *Editor) MoveSlot(ctx context.Context, examID, slotID, afterID int64, page int) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(_ context.Context, _ structure.Tx, st *structure.Structure) (describeFunc, error) {
		mv, err := st.MoveSlot(slotID, afterID, page)
		if err != nil || !mv.Moved {
			return nil, err
		}
		return func(structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.SlotMoved, examID, map[string]any{
				"slot_id":           mv.SlotID,
				"after_slot_id":     afterID,
				"previous_position": mv.FromPosition,
				"position":          mv.ToPosition,
				"previous_page":     mv.FromPage,
				"page":              mv.ToPage,
			})}
		}, nil
	})
}

// RemoveSlot deletes the slot at a position.
func (e *Editor) RemoveSlot(ctx context.Context, examID int64, pos int) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(_ context.Context, _ structure.Tx, st *structure.Structure) (describeFunc, error) {
		removed, err := st.RemoveSlot(pos)
		if err != nil {
			return nil, err
		}
		return func(structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.SlotDeleted, examID, map[string]any{
				"slot_id":  removed.ID,
				"position": removed.Position,
				"page":     removed.Page,
			})}
		}, nil
	})
}

// UpdatePageBreak adds or removes the page break before a slot.
func (e *Editor) UpdatePageBreak(ctx context.Context, examID, slotID int64, action structure.PageBreakAction) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(_ context.Context, _ structure.Tx, st *structure.Structure) (describeFunc, error) {
		changed, err := st.UpdatePageBreak(slotID, action)
		if err != nil || !changed {
			return nil, err
		}
		typ := events.PageBreakCreated
		if action == structure.PageBreakLink {
			typ = events.PageBreakDeleted
		}
		sl, _ := st.SlotByID(slotID)
		return func(structure.ApplyResult) []events.Event {
			return []events.Event{events.New(typ, examID, map[string]any{
				"slot_id":  slotID,
				"position": sl.Position,
				"page":     sl.Page,
			})}
		}, nil
	})
}

// Repaginate puts perPage slots on each page, starting a page at every section.
func (e *Editor) Repaginate(ctx context.Context, examID int64, perPage int) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(_ context.Context, _ structure.Tx, st *structure.Structure) (describeFunc, error) {
		if err := st.Repaginate(perPage); err != nil {
			return nil, err
		}
		pages := st.PageCount()
		return func(structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.ExamRepaginated, examID, map[string]any{
				"questions_per_page": perPage,
				"page_count":         pages,
			})}
		}, nil
	})
}

// SetMaxMark changes a slot's maximum mark.
func (e *Editor) SetMaxMark(ctx context.Context, examID, slotID int64, mark float64) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(_ context.Context, _ structure.Tx, st *structure.Structure) (describeFunc, error) {
		old, err := st.SetMaxMark(slotID, mark)
		if err != nil {
			return nil, err
		}
		return func(structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.SlotMarkUpdated, examID, map[string]any{
				"slot_id":           slotID,
				"previous_max_mark": old,
				"max_mark":          mark,
			})}
		}, nil
	})
}

// SetRequirePrevious makes a slot depend on its predecessor, or not.
func (e *Editor) SetRequirePrevious(ctx context.Context, examID, slotID int64, require bool) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(_ context.Context, _ structure.Tx, st *structure.Structure) (describeFunc, error) {
		old, err := st.SetRequirePrevious(slotID, require)
		if err != nil {
			return nil, err
		}
		return func(structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.SlotRequirePreviousUpdated, examID, map[string]any{
				"slot_id":          slotID,
				"previous_value":   old,
				"require_previous": require,
			})}
		}, nil
	})
}

// SetDisplayNumber sets or clears a slot's custom number.
func (e *Editor) SetDisplayNumber(ctx context.Context, examID, slotID int64, label string) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(_ context.Context, _ structure.Tx, st *structure.Structure) (describeFunc, error) {
		old, err := st.SetDisplayNumber(slotID, label)
		if err != nil {
			return nil, err
		}
		return func(structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.SlotDisplayNumberUpdated, examID, map[string]any{
				"slot_id":        slotID,
				"previous_value": old,
				"display_number": label,
			})}
		}, nil
	})
}

// ReplaceQuestion points a slot at another question.
func (e *Editor) ReplaceQuestion(ctx context.Context, examID, slotID int64, ref model.QuestionRef) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(ctx context.Context, tx structure.Tx, st *structure.Structure) (describeFunc, error) {
		info, err := tx.Describe(ctx, ref)
		if err != nil {
			return nil, err
		}
		old, err := st.ReplaceQuestion(slotID, ref, info)
		if err != nil {
			return nil, err
		}
		return func(structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.SlotQuestionReplaced, examID, map[string]any{
				"slot_id":              slotID,
				"previous_kind":        string(old.Kind),
				"previous_question_id": old.QuestionID,
				"kind":                 string(ref.Kind),
				"question_id":          ref.QuestionID,
			})}
		}, nil
	})
}

// AddSection starts a section at the first slot of page. A nil heading gets the
// localized default heading.
func (e *Editor) AddSection(ctx context.Context, examID int64, page int, heading *string) (model.StructureView, error) {
	h := i18n.T(ctx, "NewSectionHeading")
	if heading != nil {
		h = *heading
	}
	return e.mutate(ctx, examID, func(_ context.Context, _ structure.Tx, st *structure.Structure) (describeFunc, error) {
		sec, err := st.AddSection(page, h)
		if err != nil {
			return nil, err
		}
		return func(res structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.SectionCreated, examID, map[string]any{
				"section_id": res.SectionID(sec.ID),
				"first_slot": sec.FirstSlot,
				"page":       page,
				"heading":    sec.Heading,
			})}
		}, nil
	})
}

// SetSectionHeading renames a section.
func (e *Editor) SetSectionHeading(ctx context.Context, examID, sectionID int64, heading string) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(_ context.Context, _ structure.Tx, st *structure.Structure) (describeFunc, error) {
		old, err := st.SetSectionHeading(sectionID, heading)
		if err != nil {
			return nil, err
		}
		return func(structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.SectionTitleUpdated, examID, map[string]any{
				"section_id":       sectionID,
				"previous_heading": old,
				"heading":          heading,
			})}
		}, nil
	})
}

// SetSectionShuffle turns shuffling of a section on or off.
func (e *Editor) SetSectionShuffle(ctx context.Context, examID, sectionID int64, shuffle bool) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(_ context.Context, _ structure.Tx, st *structure.Structure) (describeFunc, error) {
		old, err := st.SetSectionShuffle(sectionID, shuffle)
		if err != nil {
			return nil, err
		}
		return func(structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.SectionShuffleUpdated, examID, map[string]any{
				"section_id":     sectionID,
				"previous_value": old,
				"shuffle":        shuffle,
			})}
		}, nil
	})
}

// RemoveSection deletes a section; its slots join the previous one.
func (e *Editor) RemoveSection(ctx context.Context, examID, sectionID int64) (model.StructureView, error) {
	return e.mutate(ctx, examID, func(_ context.Context, _ structure.Tx, st *structure.Structure) (describeFunc, error) {
		removed, err := st.RemoveSection(sectionID)
		if err != nil {
			return nil, err
		}
		return func(structure.ApplyResult) []events.Event {
			return []events.Event{events.New(events.SectionDeleted, examID, map[string]any{
				"section_id": removed.ID,
				"first_slot": removed.FirstSlot,
				"heading":    removed.Heading,
			})}
		}, nil
	})
}
