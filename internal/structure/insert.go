package structure

import (
	"github.com/pavelanni/examlayout/internal/apperr"
	"github.com/pavelanni/examlayout/internal/model"
)

// AddSlot inserts a new slot holding ref. The returned slot carries a temporary
// negative id until the delta is applied.
//
// A positive page places the slot after the last slot on or before that page; pages past
// the end open one new page. Page 0 appends to the last page, or to a new page when the
// last page already holds the exam's questions-per-page limit.
func (s *Structure) AddSlot(page int, ref model.QuestionRef, maxMark float64, info model.QuestionInfo) (model.Slot, error) {
	var added model.Slot
	err := s.mutate(func() error {
		if page < 0 {
			return apperr.Newf(apperr.InvalidTarget, "page %d is not a valid page", page)
		}
		if maxMark < 0 {
			return apperr.Newf(apperr.InvalidTarget, "max mark %g is negative", maxMark)
		}
		if err := checkRef(ref); err != nil {
			return err
		}
		last := s.PageCount()

		pos := len(s.slots) + 1
		switch {
		case page == 0:
			page = max(last, 1)
			if limit := s.exam.QuestionsPerPage; limit > 0 && last > 0 {
				if onLast, _ := s.SlotsOnPage(last); len(onLast) >= limit {
					page = last + 1
				}
			}
		default:
			lastBefore := 0
			for i := len(s.slots) - 1; i >= 0; i-- {
				if s.slots[i].Page <= page {
					lastBefore = s.slots[i].Position
					break
				}
				s.slots[i].Position++
			}
			pos = lastBefore + 1
			page = min(page, last+1)
			for i := range s.sections {
				if s.sections[i].FirstSlot > max(lastBefore, 1) {
					s.sections[i].FirstSlot++
				}
			}
		}

		added = model.Slot{
			ID:       s.newTempID(),
			ExamID:   s.exam.ID,
			Position: pos,
			Page:     page,
			MaxMark:  maxMark,
			Ref:      ref,
		}
		s.slots = append(s.slots, added)
		s.sortSlots()
		s.infos[added.ID] = info
		return nil
	})
	return added, err
}

// checkRef rejects a reference that is neither a fixed question nor a random draw.
func checkRef(ref model.QuestionRef) error {
	switch ref.Kind {
	case model.RefFixed, model.RefRandom:
		return nil
	}
	return apperr.Newf(apperr.InvalidTarget, "question kind must be %s or %s, got %q", model.RefFixed, model.RefRandom, ref.Kind)
}
