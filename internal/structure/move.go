package structure

import (
	"github.com/pavelanni/examlayout/internal/apperr"
)

// MoveResult describes what MoveSlot did.
type MoveResult struct {
	SlotID       int64
	FromPosition int
	ToPosition   int
	FromPage     int
	ToPage       int // after empty pages were closed
	Moved        bool
}

// MoveSlot moves a slot to directly after afterID (0 means to the very start) on the
// given page.
//
// The page must lie between the page of the slot it lands after and the page of the
// slot that will follow it. Section starts between the old and new position move with
// their slots; the moved slot becomes the first slot of the following section only
// when it lands on that section's first page. Pages left empty are closed up.
func (s *Structure) MoveSlot(movingID, afterID int64, page int) (MoveResult, error) {
	var res MoveResult
	err := s.mutate(func() error {
		idx := s.slotIndex(movingID)
		if idx < 0 {
			return apperr.Newf(apperr.NotFound, "slot %d not found", movingID)
		}
		moving := s.slots[idx]
		m := moving.Position

		after := 0
		if afterID != 0 {
			ai := s.slotIndex(afterID)
			if ai < 0 {
				return apperr.Newf(apperr.NotFound, "slot %d not found", afterID)
			}
			after = s.slots[ai].Position
		}
		// Moving a slot after itself means keeping it after its predecessor.
		if after == m {
			after = m - 1
		}
		following := after + 1
		if following == m && !s.IsLastSlot(following) {
			following++
		}
		if err := s.checkMoveTarget(after, following, page); err != nil {
			return err
		}

		res = MoveResult{SlotID: movingID, FromPosition: m, FromPage: moving.Page}

		// Section starts in the open interval (lo, hi) shift by dir.
		var lo, hi, dir int
		newPos := m
		switch {
		case after > m:
			newPos = after
			lo, dir = m, -1
			if s.IsLastSlot(after) || page == s.PageOf(after+1) {
				hi = after + 2
			} else {
				hi = after + 1
			}
		case after < m-1:
			newPos = after + 1
			hi, dir = m+1, 1
			if page == s.PageOf(after+1) {
				lo = after + 1
			} else {
				lo = after
			}
		case page > moving.Page:
			if !s.IsLastSlot(m) && page == s.PageOf(m+1) {
				lo, hi, dir = m, m+2, -1
			}
		case page < moving.Page:
			if m > 1 && page == s.PageOf(m-1) {
				lo, hi, dir = m-1, m+1, 1
			}
		default:
			res.ToPosition, res.ToPage = m, moving.Page
			return nil
		}

		if newPos != m && s.IsOnlySlotInSection(m) {
			return apperr.Newf(apperr.StructuralViolation, "slot %d is the only slot in its section", movingID)
		}

		for i := range s.slots {
			p := s.slots[i].Position
			switch {
			case i == idx:
				s.slots[i].Position = newPos
				s.slots[i].Page = page
			case after > m && p > m && p <= after:
				s.slots[i].Position--
			case after < m-1 && p > after && p < m:
				s.slots[i].Position++
			}
		}
		if dir != 0 {
			for i := range s.sections {
				if f := s.sections[i].FirstSlot; f > lo && f < hi {
					s.sections[i].FirstSlot += dir
				}
			}
		}
		s.sortSlots()
		s.sortSections()
		s.compactPages()
		s.clearLeadingDependency()

		res.ToPosition = newPos
		res.ToPage = s.slots[newPos-1].Page
		res.Moved = true
		return nil
	})
	return res, err
}

func (s *Structure) checkMoveTarget(after, following, page int) error {
	if page < 1 {
		return apperr.Newf(apperr.InvalidTarget, "page %d is not a valid page", page)
	}
	if after > 0 && page < s.PageOf(after) {
		return apperr.Newf(apperr.InvalidTarget, "page %d is before page %d of the slot it would follow", page, s.PageOf(after))
	}
	if s.IsLastSlot(after) {
		if page > s.PageOf(after)+1 {
			return apperr.Newf(apperr.InvalidTarget, "page %d would leave a gap after page %d", page, s.PageOf(after))
		}
		return nil
	}
	if page > s.PageOf(following) {
		return apperr.Newf(apperr.InvalidTarget, "page %d is after page %d of the slot that would follow", page, s.PageOf(following))
	}
	return nil
}

// clearLeadingDependency drops requirePrevious from the first slot, which has nothing to depend on.
func (s *Structure) clearLeadingDependency() {
	if len(s.slots) > 0 {
		s.slots[0].RequirePrevious = false
	}
}
