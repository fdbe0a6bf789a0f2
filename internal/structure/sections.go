package structure

import (
	"github.com/pavelanni/examlayout/internal/apperr"
	"github.com/pavelanni/examlayout/internal/model"
)

// AddSection starts a new section at the first slot of page. The returned section
// carries a temporary negative id until the delta is applied.
func (s *Structure) AddSection(page int, heading string) (model.Section, error) {
	var added model.Section
	err := s.mutate(func() error {
		onPage, err := s.SlotsOnPage(page)
		if err != nil {
			return err
		}
		if page == 1 {
			return apperr.New(apperr.StructuralViolation, "the first page always belongs to the first section")
		}
		first := onPage[0].Position
		if s.IsFirstSlotInSection(first) {
			return apperr.Newf(apperr.StructuralViolation, "a section already starts on page %d", page)
		}
		added = model.Section{
			ID:        s.newTempID(),
			ExamID:    s.exam.ID,
			Heading:   heading,
			FirstSlot: first,
		}
		s.sections = append(s.sections, added)
		s.sortSections()
		return nil
	})
	return added, err
}

// SetSectionHeading renames a section and returns the previous heading.
func (s *Structure) SetSectionHeading(sectionID int64, heading string) (string, error) {
	var old string
	err := s.mutate(func() error {
		i := s.sectionIndex(sectionID)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, "section %d not found", sectionID)
		}
		old = s.sections[i].Heading
		s.sections[i].Heading = heading
		return nil
	})
	return old, err
}

// SetSectionShuffle turns shuffling of a section's slots on or off and returns the previous value.
func (s *Structure) SetSectionShuffle(sectionID int64, shuffle bool) (bool, error) {
	var old bool
	err := s.mutate(func() error {
		i := s.sectionIndex(sectionID)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, "section %d not found", sectionID)
		}
		old = s.sections[i].Shuffle
		s.sections[i].Shuffle = shuffle
		return nil
	})
	return old, err
}

// RemoveSection deletes a section; its slots join the preceding section.
func (s *Structure) RemoveSection(sectionID int64) (model.Section, error) {
	var removed model.Section
	err := s.mutate(func() error {
		i := s.sectionIndex(sectionID)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, "section %d not found", sectionID)
		}
		removed = s.sections[i]
		if removed.FirstSlot == 1 {
			return apperr.New(apperr.StructuralViolation, "the first section cannot be removed")
		}
		s.sections = append(s.sections[:i], s.sections[i+1:]...)
		return nil
	})
	return removed, err
}
