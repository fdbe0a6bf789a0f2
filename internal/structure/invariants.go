package structure

import (
	"github.com/pavelanni/examlayout/internal/apperr"
)

// Validate checks the structural invariants:
//   - positions are exactly 1..N in order, ids are unique
//   - pages start at 1, never decrease and never skip a number
//   - there is at least one section, the first starts at position 1, starts strictly
//     increase and every section holds at least one slot (an empty exam has one section)
func (s *Structure) Validate() error {
	seen := make(map[int64]bool, len(s.slots))
	for i, sl := range s.slots {
		if sl.Position != i+1 {
			return apperr.Newf(apperr.StructuralViolation, "slot %d is at position %d, expected %d", sl.ID, sl.Position, i+1)
		}
		if seen[sl.ID] {
			return apperr.Newf(apperr.StructuralViolation, "slot id %d appears twice", sl.ID)
		}
		seen[sl.ID] = true
		switch {
		case i == 0 && sl.Page != 1:
			return apperr.Newf(apperr.StructuralViolation, "first slot is on page %d, expected 1", sl.Page)
		case i > 0 && sl.Page != s.slots[i-1].Page && sl.Page != s.slots[i-1].Page+1:
			return apperr.Newf(apperr.StructuralViolation, "slot at position %d jumps from page %d to %d", sl.Position, s.slots[i-1].Page, sl.Page)
		}
		if sl.MaxMark < 0 {
			return apperr.Newf(apperr.StructuralViolation, "slot %d has negative max mark", sl.ID)
		}
	}

	if len(s.sections) == 0 {
		return apperr.New(apperr.StructuralViolation, "exam has no sections")
	}
	if s.sections[0].FirstSlot != 1 {
		return apperr.Newf(apperr.StructuralViolation, "first section starts at %d, expected 1", s.sections[0].FirstSlot)
	}
	if len(s.slots) == 0 {
		if len(s.sections) > 1 {
			return apperr.New(apperr.StructuralViolation, "empty exam has more than one section")
		}
		return nil
	}
	for i := 1; i < len(s.sections); i++ {
		prev, cur := s.sections[i-1], s.sections[i]
		if cur.FirstSlot <= prev.FirstSlot {
			return apperr.Newf(apperr.StructuralViolation, "section %d would be empty", prev.ID)
		}
	}
	if last := s.sections[len(s.sections)-1]; last.FirstSlot > len(s.slots) {
		return apperr.Newf(apperr.StructuralViolation, "section %d would be empty", last.ID)
	}
	return nil
}
