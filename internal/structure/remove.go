package structure

import (
	"github.com/pavelanni/examlayout/internal/apperr"
	"github.com/pavelanni/examlayout/internal/model"
)

// RemoveSlot deletes the slot at pos and closes the gap it leaves. It returns the removed slot.
//
// The last slot of the only section may be removed, leaving an empty exam. Any other
// slot that is alone in its section cannot: remove the section first.
func (s *Structure) RemoveSlot(pos int) (model.Slot, error) {
	var removed model.Slot
	err := s.mutate(func() error {
		if pos < 1 || pos > len(s.slots) {
			return apperr.Newf(apperr.NotFound, "no slot at position %d", pos)
		}
		removed = s.slots[pos-1]
		if s.IsOnlySlotInSection(pos) && len(s.sections) > 1 {
			return apperr.Newf(apperr.StructuralViolation, "slot %d is the only slot in its section", removed.ID)
		}

		s.slots = append(s.slots[:pos-1], s.slots[pos:]...)
		for i := pos - 1; i < len(s.slots); i++ {
			s.slots[i].Position--
		}
		for i := range s.sections {
			if s.sections[i].FirstSlot > pos {
				s.sections[i].FirstSlot--
			}
		}
		s.compactPages()
		s.clearLeadingDependency()
		return nil
	})
	return removed, err
}
