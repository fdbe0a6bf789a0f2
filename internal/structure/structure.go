// Package structure keeps an exam's slot, page and section hierarchy consistent.
//
// A Structure is an in-memory aggregate loaded from a Source. Mutating methods
// validate every precondition before changing anything, restore the previous state
// on failure, and re-check the structural invariants before returning. The caller
// persists the result with Delta inside the same store transaction it loaded from.
package structure

import (
	"maps"
	"slices"

	"github.com/pavelanni/examlayout/internal/apperr"
	"github.com/pavelanni/examlayout/internal/model"
)

// Structure is one exam's slot/section hierarchy.
type Structure struct {
	exam     model.Exam
	slots    []model.Slot    // ordered by position
	sections []model.Section // ordered by first slot
	infos    map[int64]model.QuestionInfo
	canEdit  bool

	origSlots    map[int64]model.Slot
	origSections map[int64]model.Section
	nextTempID   int64
}

// New builds a Structure from loaded records. hasAttempts locks the structure for editing.
func New(exam model.Exam, slots []model.Slot, sections []model.Section, infos map[int64]model.QuestionInfo, hasAttempts bool) (*Structure, error) {
	s := &Structure{
		exam:         exam,
		slots:        slices.Clone(slots),
		sections:     slices.Clone(sections),
		infos:        make(map[int64]model.QuestionInfo, len(infos)),
		canEdit:      !hasAttempts,
		origSlots:    make(map[int64]model.Slot, len(slots)),
		origSections: make(map[int64]model.Section, len(sections)),
		nextTempID:   -1,
	}
	for id, info := range infos {
		s.infos[id] = info
	}
	slices.SortFunc(s.slots, func(a, b model.Slot) int { return a.Position - b.Position })
	slices.SortFunc(s.sections, func(a, b model.Section) int { return a.FirstSlot - b.FirstSlot })
	for _, sl := range s.slots {
		sl.Ref.TagFilters = slices.Clone(sl.Ref.TagFilters)
		s.origSlots[sl.ID] = sl
	}
	for _, sec := range s.sections {
		s.origSections[sec.ID] = sec
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Exam returns the owning exam.
func (s *Structure) Exam() model.Exam {
	return s.exam
}

// Slots returns a copy of all slots in position order.
func (s *Structure) Slots() []model.Slot {
	return slices.Clone(s.slots)
}

// Sections returns a copy of all sections in order.
func (s *Structure) Sections() []model.Section {
	return slices.Clone(s.sections)
}

// SlotCount returns the number of slots.
func (s *Structure) SlotCount() int {
	return len(s.slots)
}

// SectionCount returns the number of sections.
func (s *Structure) SectionCount() int {
	return len(s.sections)
}

// QuestionCount returns the number of real (numbered) questions.
func (s *Structure) QuestionCount() int {
	n := 0
	for _, sl := range s.slots {
		if s.info(sl).IsReal() {
			n++
		}
	}
	return n
}

// PageCount returns the number of pages.
func (s *Structure) PageCount() int {
	if len(s.slots) == 0 {
		return 0
	}
	return s.slots[len(s.slots)-1].Page
}

// TotalMark sums the max marks of all slots.
func (s *Structure) TotalMark() float64 {
	var total float64
	for _, sl := range s.slots {
		total += sl.MaxMark
	}
	return total
}

// CanBeEdited reports whether mutations are allowed. It is fixed at load time.
func (s *Structure) CanBeEdited() bool {
	return s.canEdit
}

// CheckCanBeEdited returns a StructureLocked error when attempts exist.
func (s *Structure) CheckCanBeEdited() error {
	if !s.canEdit {
		return apperr.Newf(apperr.StructureLocked, "exam %d already has attempts", s.exam.ID)
	}
	return nil
}

// SlotByPosition returns the slot at a 1-based position.
func (s *Structure) SlotByPosition(pos int) (model.Slot, error) {
	if pos < 1 || pos > len(s.slots) {
		return model.Slot{}, apperr.Newf(apperr.NotFound, "no slot at position %d", pos)
	}
	return s.slots[pos-1], nil
}

// SlotByID returns the slot with the given id.
func (s *Structure) SlotByID(id int64) (model.Slot, error) {
	i := s.slotIndex(id)
	if i < 0 {
		return model.Slot{}, apperr.Newf(apperr.NotFound, "slot %d not found", id)
	}
	return s.slots[i], nil
}

// SectionByID returns the section with the given id.
func (s *Structure) SectionByID(id int64) (model.Section, error) {
	i := s.sectionIndex(id)
	if i < 0 {
		return model.Section{}, apperr.Newf(apperr.NotFound, "section %d not found", id)
	}
	return s.sections[i], nil
}

// SectionForSlot returns the section containing the given position.
func (s *Structure) SectionForSlot(pos int) (model.Section, error) {
	if pos < 1 || pos > len(s.slots) {
		return model.Section{}, apperr.Newf(apperr.NotFound, "no slot at position %d", pos)
	}
	return s.sections[s.sectionIndexForPosition(pos)], nil
}

// LastSlotInSection returns the derived last position of a section, 0 for an empty exam.
func (s *Structure) LastSlotInSection(sectionID int64) (int, error) {
	i := s.sectionIndex(sectionID)
	if i < 0 {
		return 0, apperr.Newf(apperr.NotFound, "section %d not found", sectionID)
	}
	return s.lastSlotOfSectionIndex(i), nil
}

// SlotsInSection returns the slots of a section in order.
func (s *Structure) SlotsInSection(sectionID int64) ([]model.Slot, error) {
	i := s.sectionIndex(sectionID)
	if i < 0 {
		return nil, apperr.Newf(apperr.NotFound, "section %d not found", sectionID)
	}
	first, last := s.sections[i].FirstSlot, s.lastSlotOfSectionIndex(i)
	if last < first {
		return nil, nil
	}
	return slices.Clone(s.slots[first-1 : last]), nil
}

// SlotsOnPage returns the slots on a page in order.
func (s *Structure) SlotsOnPage(page int) ([]model.Slot, error) {
	var out []model.Slot
	for _, sl := range s.slots {
		if sl.Page == page {
			out = append(out, sl)
		}
	}
	if len(out) == 0 {
		return nil, apperr.Newf(apperr.NotFound, "page %d not found", page)
	}
	return out, nil
}

// PageOf returns the page of the slot at pos, or 0 when pos is out of range.
func (s *Structure) PageOf(pos int) int {
	if pos < 1 || pos > len(s.slots) {
		return 0
	}
	return s.slots[pos-1].Page
}

// IsLastSlot reports whether pos is the last slot of the exam.
func (s *Structure) IsLastSlot(pos int) bool {
	return pos == len(s.slots)
}

// IsFirstSlotInSection reports whether a section starts at pos.
func (s *Structure) IsFirstSlotInSection(pos int) bool {
	return s.sectionStartingAt(pos) >= 0
}

// IsLastSlotInSection reports whether pos is the last slot of its section.
func (s *Structure) IsLastSlotInSection(pos int) bool {
	if pos < 1 || pos > len(s.slots) {
		return false
	}
	return pos == len(s.slots) || s.IsFirstSlotInSection(pos+1)
}

// IsOnlySlotInSection reports whether pos is the sole member of its section.
func (s *Structure) IsOnlySlotInSection(pos int) bool {
	return s.IsFirstSlotInSection(pos) && s.IsLastSlotInSection(pos)
}

// IsFirstSlotOnPage reports whether pos starts a page.
func (s *Structure) IsFirstSlotOnPage(pos int) bool {
	if pos < 1 || pos > len(s.slots) {
		return false
	}
	return pos == 1 || s.slots[pos-2].Page != s.slots[pos-1].Page
}

// IsLastSlotOnPage reports whether pos ends a page.
func (s *Structure) IsLastSlotOnPage(pos int) bool {
	if pos < 1 || pos > len(s.slots) {
		return false
	}
	return pos == len(s.slots) || s.slots[pos].Page != s.slots[pos-1].Page
}

// QuestionInfo returns the resolved question info for the slot at pos.
func (s *Structure) QuestionInfo(pos int) (model.QuestionInfo, error) {
	sl, err := s.SlotByPosition(pos)
	if err != nil {
		return model.QuestionInfo{}, err
	}
	return s.info(sl), nil
}

// info returns the resolved info for a slot; unresolved slots count as one missing question.
func (s *Structure) info(sl model.Slot) model.QuestionInfo {
	if qi, ok := s.infos[sl.ID]; ok {
		return qi
	}
	return model.MissingQuestion
}

func (s *Structure) slotIndex(id int64) int {
	return slices.IndexFunc(s.slots, func(sl model.Slot) bool { return sl.ID == id })
}

func (s *Structure) sectionIndex(id int64) int {
	return slices.IndexFunc(s.sections, func(sec model.Section) bool { return sec.ID == id })
}

func (s *Structure) sectionStartingAt(pos int) int {
	return slices.IndexFunc(s.sections, func(sec model.Section) bool { return sec.FirstSlot == pos })
}

// sectionIndexForPosition returns the index of the last section starting at or before pos.
func (s *Structure) sectionIndexForPosition(pos int) int {
	idx := 0
	for i, sec := range s.sections {
		if sec.FirstSlot <= pos {
			idx = i
		}
	}
	return idx
}

func (s *Structure) lastSlotOfSectionIndex(i int) int {
	if i+1 < len(s.sections) {
		return s.sections[i+1].FirstSlot - 1
	}
	return len(s.slots)
}

// mutate runs fn on the structure, restoring the previous state when fn or the
// invariant check fails. The lock is checked before fn runs.
func (s *Structure) mutate(fn func() error) error {
	if err := s.CheckCanBeEdited(); err != nil {
		return err
	}
	slots, sections, infos := slices.Clone(s.slots), slices.Clone(s.sections), maps.Clone(s.infos)
	tempID := s.nextTempID
	restore := func() {
		s.slots, s.sections, s.infos, s.nextTempID = slots, sections, infos, tempID
	}
	if err := fn(); err != nil {
		restore()
		return err
	}
	if err := s.Validate(); err != nil {
		restore()
		return err
	}
	return nil
}

func (s *Structure) newTempID() int64 {
	id := s.nextTempID
	s.nextTempID--
	return id
}

func (s *Structure) sortSlots() {
	slices.SortFunc(s.slots, func(a, b model.Slot) int { return a.Position - b.Position })
}

func (s *Structure) sortSections() {
	slices.SortFunc(s.sections, func(a, b model.Section) int { return a.FirstSlot - b.FirstSlot })
}
