package structure

import (
	"unicode/utf8"

	"github.com/pavelanni/examlayout/internal/apperr"
	"github.com/pavelanni/examlayout/internal/model"
)

// MaxDisplayNumberLen is the longest custom display number, in characters.
const MaxDisplayNumberLen = 16

// SetMaxMark changes a slot's maximum mark and returns the previous one.
func (s *Structure) SetMaxMark(slotID int64, mark float64) (float64, error) {
	var old float64
	err := s.updateSlot(slotID, func(sl *model.Slot) error {
		if mark < 0 {
			return apperr.Newf(apperr.InvalidTarget, "max mark %g is negative", mark)
		}
		old, sl.MaxMark = sl.MaxMark, mark
		return nil
	})
	return old, err
}

// SetRequirePrevious makes a slot wait for its predecessor, or stops it waiting.
// Adding a dependency is only allowed where CanAddDependency holds.
func (s *Structure) SetRequirePrevious(slotID int64, require bool) (bool, error) {
	var old bool
	err := s.updateSlot(slotID, func(sl *model.Slot) error {
		if require {
			ok, err := s.CanAddDependency(sl.Position)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Newf(apperr.StructuralViolation, "slot %d cannot depend on the previous slot", slotID)
			}
		}
		old, sl.RequirePrevious = sl.RequirePrevious, require
		return nil
	})
	return old, err
}

// SetDisplayNumber sets a custom label shown instead of the question number.
// An empty label restores automatic numbering.
func (s *Structure) SetDisplayNumber(slotID int64, label string) (string, error) {
	var old string
	err := s.updateSlot(slotID, func(sl *model.Slot) error {
		if utf8.RuneCountInString(label) > MaxDisplayNumberLen {
			return apperr.Newf(apperr.InvalidTarget, "display number %q is longer than %d characters", label, MaxDisplayNumberLen)
		}
		old, sl.DisplayNumber = sl.DisplayNumber, label
		return nil
	})
	return old, err
}

// ReplaceQuestion points a slot at a different question.
func (s *Structure) ReplaceQuestion(slotID int64, ref model.QuestionRef, info model.QuestionInfo) (model.QuestionRef, error) {
	var old model.QuestionRef
	err := s.updateSlot(slotID, func(sl *model.Slot) error {
		if err := checkRef(ref); err != nil {
			return err
		}
		old, sl.Ref = sl.Ref, ref
		s.infos[sl.ID] = info
		return nil
	})
	return old, err
}

func (s *Structure) updateSlot(slotID int64, fn func(sl *model.Slot) error) error {
	return s.mutate(func() error {
		i := s.slotIndex(slotID)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, "slot %d not found", slotID)
		}
		return fn(&s.slots[i])
	})
}
