package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/examlayout/internal/apperr"
	"github.com/pavelanni/examlayout/internal/events"
	"github.com/pavelanni/examlayout/internal/layout"
	"github.com/pavelanni/examlayout/internal/model"
	"github.com/pavelanni/examlayout/internal/structure"
)

// questionInserter is implemented by transactions that can add bank questions.
type questionInserter interface {
	InsertQuestion(ctx context.Context, q model.Question) (int64, error)
}

// Import creates a new exam from a layout file. Either the whole layout is written or
// the exam is removed again.
func (e *Editor) Import(ctx context.Context, f *layout.File) (model.StructureView, error) {
	if err := f.Validate(); err != nil {
		return model.StructureView{}, apperr.Wrap(apperr.InvalidTarget, "invalid layout", err)
	}
	exam, err := e.store.CreateExam(ctx, model.Exam{
		Name:             f.Name,
		QuestionsPerPage: f.QuestionsPerPage,
		Navigation:       f.Navigation,
	})
	if err != nil {
		return model.StructureView{}, err
	}

	v, err := e.mutate(ctx, exam.ID, func(ctx context.Context, tx structure.Tx, st *structure.Structure) (describeFunc, error) {
		return buildFromLayout(ctx, tx, st, f)
	})
	if err != nil {
		if derr := e.store.DeleteExam(ctx, exam.ID); derr != nil {
			slog.Warn("failed to clean up partially imported exam", "exam_id", exam.ID, "error", derr)
		}
		return model.StructureView{}, err
	}
	slog.Info("layout imported", "exam_id", exam.ID, "name", exam.Name,
		"slots", v.SlotCount, "sections", len(v.Sections))
	return v, nil
}

type importedSlot struct {
	id  int64
	src layout.Slot
}

func buildFromLayout(ctx context.Context, tx structure.Tx, st *structure.Structure, f *layout.File) (describeFunc, error) {
	var (
		added      []importedSlot
		startPages = make([]int, len(f.Sections))
		page       = 0
		onPage     = 0
	)
	for i, sec := range f.Sections {
		for j, src := range sec.Slots {
			newPage := page == 0 || src.NewPage || (i > 0 && j == 0) ||
				(f.QuestionsPerPage > 0 && onPage >= f.QuestionsPerPage)
			if newPage {
				page++
				onPage = 0
			}
			if j == 0 {
				startPages[i] = page
			}

			ref, err := layoutRef(ctx, tx, src)
			if err != nil {
				return nil, fmt.Errorf("section %d, slot %d: %w", i+1, j+1, err)
			}
			info, err := tx.Describe(ctx, ref)
			if err != nil {
				return nil, err
			}
			sl, err := st.AddSlot(page, ref, src.Mark(), info)
			if err != nil {
				return nil, fmt.Errorf("section %d, slot %d: %w", i+1, j+1, err)
			}
			added = append(added, importedSlot{id: sl.ID, src: src})
			onPage++
		}
	}

	var sectionIDs []int64
	for i, sec := range f.Sections {
		if i == 0 {
			first := st.Sections()[0]
			if _, err := st.SetSectionHeading(first.ID, sec.Heading); err != nil {
				return nil, err
			}
			sectionIDs = append(sectionIDs, first.ID)
			continue
		}
		created, err := st.AddSection(startPages[i], sec.Heading)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i+1, err)
		}
		sectionIDs = append(sectionIDs, created.ID)
	}
	for i, sec := range f.Sections {
		if sec.Shuffle {
			if _, err := st.SetSectionShuffle(sectionIDs[i], true); err != nil {
				return nil, err
			}
		}
	}

	for _, a := range added {
		if a.src.RequirePrevious {
			if _, err := st.SetRequirePrevious(a.id, true); err != nil {
				return nil, err
			}
		}
		if a.src.DisplayNumber != "" {
			if _, err := st.SetDisplayNumber(a.id, a.src.DisplayNumber); err != nil {
				return nil, err
			}
		}
	}

	examID := st.Exam().ID
	return func(res structure.ApplyResult) []events.Event {
		evs := make([]events.Event, 0, len(added)+len(sectionIDs))
		for _, a := range added {
			sl, _ := st.SlotByID(a.id)
			evs = append(evs, events.New(events.SlotCreated, examID, map[string]any{
				"slot_id":  res.SlotID(a.id),
				"position": sl.Position,
				"page":     sl.Page,
			}))
		}
		for _, id := range sectionIDs[min(1, len(sectionIDs)):] {
			sec, _ := st.SectionByID(id)
			evs = append(evs, events.New(events.SectionCreated, examID, map[string]any{
				"section_id": res.SectionID(id),
				"first_slot": sec.FirstSlot,
				"heading":    sec.Heading,
			}))
		}
		return evs
	}, nil
}

// layoutRef returns the question reference for a layout slot, adding inline
// questions to the bank first.
func layoutRef(ctx context.Context, tx structure.Tx, src layout.Slot) (model.QuestionRef, error) {
	if src.Question == nil {
		return src.Ref(), nil
	}
	ins, ok := tx.(questionInserter)
	if !ok {
		return model.QuestionRef{}, fmt.Errorf("store cannot add inline questions")
	}
	id, err := ins.InsertQuestion(ctx, src.Question.BankQuestion())
	if err != nil {
		return model.QuestionRef{}, fmt.Errorf("add inline question %q: %w", src.Question.Name, err)
	}
	return model.FixedRef(id, nil), nil
}
