package structure

import (
	"github.com/pavelanni/examlayout/internal/apperr"
)

// PageBreakAction says what UpdatePageBreak does with the boundary before a slot.
type PageBreakAction int

const (
	// PageBreakLink removes the boundary, joining the slot to the previous page.
	PageBreakLink PageBreakAction = iota + 1
	// PageBreakUnlink inserts a boundary, starting a new page at the slot.
	PageBreakUnlink
)

func (a PageBreakAction) String() string {
	switch a {
	case PageBreakLink:
		return "link"
	case PageBreakUnlink:
		return "unlink"
	}
	return "unknown"
}

// ParsePageBreakAction accepts "link" or "unlink".
func ParsePageBreakAction(s string) (PageBreakAction, error) {
	switch s {
	case "link":
		return PageBreakLink, nil
	case "unlink":
		return PageBreakUnlink, nil
	}
	return 0, apperr.Newf(apperr.InvalidTarget, "unknown page break action %q", s)
}

// UpdatePageBreak adds or removes the page boundary immediately before a slot and
// renumbers every page. It reports false when the boundary was already as requested.
func (s *Structure) UpdatePageBreak(slotID int64, action PageBreakAction) (bool, error) {
	changed := false
	err := s.mutate(func() error {
		idx := s.slotIndex(slotID)
		if idx < 0 {
			return apperr.Newf(apperr.NotFound, "slot %d not found", slotID)
		}
		if action != PageBreakLink && action != PageBreakUnlink {
			return apperr.Newf(apperr.InvalidTarget, "unknown page break action %d", action)
		}
		if idx == 0 {
			return apperr.New(apperr.InvalidTarget, "there is no page break before the first slot")
		}
		breaks := s.pageBreaks()
		want := action == PageBreakUnlink
		if breaks[idx] == want {
			return nil
		}
		if !want && s.IsFirstSlotInSection(idx+1) {
			return apperr.Newf(apperr.StructuralViolation, "slot %d starts a section and must start a page", slotID)
		}
		breaks[idx] = want
		s.applyPageBreaks(breaks)
		changed = true
		return nil
	})
	return changed, err
}

// Repaginate reassigns all pages: a page starts at every section start and after
// every perPage slots. perPage 0 puts each section on one page.
func (s *Structure) Repaginate(perPage int) error {
	return s.mutate(func() error {
		if perPage < 0 {
			return apperr.Newf(apperr.InvalidTarget, "questions per page %d is negative", perPage)
		}
		breaks := make([]bool, len(s.slots))
		onPage := 0
		for i := range s.slots {
			if i > 0 && (s.IsFirstSlotInSection(i+1) || (perPage > 0 && onPage == perPage)) {
				breaks[i] = true
				onPage = 0
			}
			onPage++
		}
		s.applyPageBreaks(breaks)
		return nil
	})
}

// pageBreaks reports for every slot whether it starts a new page.
func (s *Structure) pageBreaks() []bool {
	breaks := make([]bool, len(s.slots))
	for i := 1; i < len(s.slots); i++ {
		breaks[i] = s.slots[i].Page != s.slots[i-1].Page
	}
	return breaks
}

// applyPageBreaks numbers pages 1..k, advancing only at a break.
func (s *Structure) applyPageBreaks(breaks []bool) {
	page := 0
	for i := range s.slots {
		if i == 0 || breaks[i] {
			page++
		}
		s.slots[i].Page = page
	}
}

// compactPages closes gaps left by emptied pages while keeping every existing boundary.
func (s *Structure) compactPages() {
	s.applyPageBreaks(s.pageBreaks())
}
