package structure

import (
	"github.com/pavelanni/examlayout/internal/model"
)

// CanFinishDuringAttempt reports whether the slot at pos can reach a finished state
// before the attempt is submitted, which is what a following slot may wait for.
func (s *Structure) CanFinishDuringAttempt(pos int) (bool, error) {
	sl, err := s.SlotByPosition(pos)
	if err != nil {
		return false, err
	}
	if s.exam.Navigation == model.NavSequential {
		return false, nil
	}
	if s.sections[s.sectionIndexForPosition(pos)].Shuffle {
		return false, nil
	}
	return s.info(sl).CanFinishDuringAttempt, nil
}

// CanAddDependency reports whether the slot at pos may require its predecessor to be finished.
func (s *Structure) CanAddDependency(pos int) (bool, error) {
	if _, err := s.SlotByPosition(pos); err != nil {
		return false, err
	}
	if pos == 1 {
		return false, nil
	}
	return s.CanFinishDuringAttempt(pos - 1)
}

// IsDependentOnPrevious reports whether the slot at pos waits for its predecessor.
func (s *Structure) IsDependentOnPrevious(pos int) (bool, error) {
	sl, err := s.SlotByPosition(pos)
	if err != nil {
		return false, err
	}
	return pos > 1 && sl.RequirePrevious, nil
}
