package structure

import (
	"slices"

	"github.com/pavelanni/examlayout/internal/model"
)

// Delta is the set of record changes between the loaded state and the current one.
// Inserted records carry negative temporary ids.
type Delta struct {
	UpdatedSlots     []model.Slot
	InsertedSlots    []model.Slot
	DeletedSlots     []int64
	UpdatedSections  []model.Section
	InsertedSections []model.Section
	DeletedSections  []int64
}

// Empty reports whether the delta changes nothing.
func (d Delta) Empty() bool {
	return len(d.UpdatedSlots) == 0 && len(d.InsertedSlots) == 0 && len(d.DeletedSlots) == 0 &&
		len(d.UpdatedSections) == 0 && len(d.InsertedSections) == 0 && len(d.DeletedSections) == 0
}

// ApplyResult maps the temporary ids of inserted records to the ids the store assigned.
type ApplyResult struct {
	SlotIDs    map[int64]int64
	SectionIDs map[int64]int64
}

// SlotID returns the stored id for id, which may be temporary.
func (r ApplyResult) SlotID(id int64) int64 {
	if real, ok := r.SlotIDs[id]; ok {
		return real
	}
	return id
}

// SectionID returns the stored id for id, which may be temporary.
func (r ApplyResult) SectionID(id int64) int64 {
	if real, ok := r.SectionIDs[id]; ok {
		return real
	}
	return id
}

// Delta diffs the current state against the state the structure was loaded with.
func (s *Structure) Delta() Delta {
	var d Delta
	current := make(map[int64]bool, len(s.slots))
	for _, sl := range s.slots {
		current[sl.ID] = true
		if sl.ID < 0 {
			d.InsertedSlots = append(d.InsertedSlots, sl)
			continue
		}
		if orig, ok := s.origSlots[sl.ID]; !ok || !slotEqual(orig, sl) {
			d.UpdatedSlots = append(d.UpdatedSlots, sl)
		}
	}
	for id := range s.origSlots {
		if !current[id] {
			d.DeletedSlots = append(d.DeletedSlots, id)
		}
	}
	slices.Sort(d.DeletedSlots)

	currentSec := make(map[int64]bool, len(s.sections))
	for _, sec := range s.sections {
		currentSec[sec.ID] = true
		if sec.ID < 0 {
			d.InsertedSections = append(d.InsertedSections, sec)
			continue
		}
		if orig, ok := s.origSections[sec.ID]; !ok || orig != sec {
			d.UpdatedSections = append(d.UpdatedSections, sec)
		}
	}
	for id := range s.origSections {
		if !currentSec[id] {
			d.DeletedSections = append(d.DeletedSections, id)
		}
	}
	slices.Sort(d.DeletedSections)
	return d
}

func slotEqual(a, b model.Slot) bool {
	if a.ID != b.ID || a.ExamID != b.ExamID || a.Position != b.Position || a.Page != b.Page ||
		a.MaxMark != b.MaxMark || a.RequirePrevious != b.RequirePrevious || a.DisplayNumber != b.DisplayNumber {
		return false
	}
	return refEqual(a.Ref, b.Ref)
}

func refEqual(a, b model.QuestionRef) bool {
	if a.Kind != b.Kind || a.QuestionID != b.QuestionID || a.CategoryID != b.CategoryID ||
		a.RecurseSubcategories != b.RecurseSubcategories {
		return false
	}
	switch {
	case a.RequestedVersion == nil && b.RequestedVersion != nil,
		a.RequestedVersion != nil && b.RequestedVersion == nil:
		return false
	case a.RequestedVersion != nil && *a.RequestedVersion != *b.RequestedVersion:
		return false
	}
	return slices.Equal(a.TagFilters, b.TagFilters)
}
