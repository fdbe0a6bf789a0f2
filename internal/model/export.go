package model

// StructureView is the numbered, read-only picture of an exam returned after every
// editor operation and written by the export command.
type StructureView struct {
	Exam          Exam          `json:"exam"`
	Editable      bool          `json:"editable"`
	SlotCount     int           `json:"slot_count"`
	QuestionCount int           `json:"question_count"`
	PageCount     int           `json:"page_count"`
	TotalMark     float64       `json:"total_mark"`
	Sections      []SectionView `json:"sections"`
}

// SectionView holds one section and its slots.
type SectionView struct {
	ID        int64      `json:"id"`
	Heading   string     `json:"heading"`
	Label     string     `json:"label"` // heading, or the localized "no name" label
	FirstSlot int        `json:"first_slot"`
	LastSlot  int        `json:"last_slot"`
	Shuffle   bool       `json:"shuffle"`
	Slots     []SlotView `json:"slots"`
}

// SlotView holds one slot with its displayed number.
type SlotView struct {
	ID               int64       `json:"id"`
	Position         int         `json:"position"`
	Page             int         `json:"page"`
	Number           string      `json:"number"`
	CustomNumber     bool        `json:"custom_number,omitempty"`
	QType            string      `json:"qtype"`
	MaxMark          float64     `json:"max_mark"`
	RequirePrevious  bool        `json:"require_previous"`
	CanAddDependency bool        `json:"can_add_dependency"`
	Ref              QuestionRef `json:"question_ref"`
}
