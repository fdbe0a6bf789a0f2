package model

import "time"

// Navigation is the exam-level navigation method.
type Navigation string

const (
	// NavFree lets learners visit pages in any order.
	NavFree Navigation = "free"
	// NavSequential forces learners through pages in order.
	NavSequential Navigation = "sequential"
)

// RefKind tells which variant a QuestionRef holds.
type RefKind string

const (
	RefFixed  RefKind = "fixed"
	RefRandom RefKind = "random"
)

// Question types with special handling in the structure engine.
const (
	QTypeDescription = "description"
	QTypeRandom      = "random"
	QTypeMissing     = "missingtype"
	QTypeEssay       = "essay"
)

// Exam is the owner of one slot/section structure.
type Exam struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	QuestionsPerPage int        `json:"questions_per_page"` // 0 means no limit
	Navigation       Navigation `json:"navigation"`
	CreatedAt        time.Time  `json:"created_at"`
}

// QuestionRef points a slot at either one question or a random draw from a category.
type QuestionRef struct {
	Kind                 RefKind  `json:"kind"`
	QuestionID           int64    `json:"question_id,omitempty"`
	RequestedVersion     *int     `json:"requested_version,omitempty"`
	CategoryID           int64    `json:"category_id,omitempty"`
	RecurseSubcategories bool     `json:"recurse_subcategories,omitempty"`
	TagFilters           []string `json:"tag_filters,omitempty"`
}

// FixedRef returns a reference to a single question. A nil version means "always latest".
func FixedRef(questionID int64, version *int) QuestionRef {
	return QuestionRef{Kind: RefFixed, QuestionID: questionID, RequestedVersion: version}
}

// RandomRef returns a reference to a random question drawn from a category.
func RandomRef(categoryID int64, recurse bool, tags []string) QuestionRef {
	return QuestionRef{Kind: RefRandom, CategoryID: categoryID, RecurseSubcategories: recurse, TagFilters: tags}
}

// Slot is one position in an exam's question sequence.
type Slot struct {
	ID              int64       `json:"id"`
	ExamID          int64       `json:"exam_id"`
	Position        int         `json:"position"`
	Page            int         `json:"page"`
	MaxMark         float64     `json:"max_mark"`
	RequirePrevious bool        `json:"require_previous"`
	DisplayNumber   string      `json:"display_number,omitempty"` // custom label, empty means use the counter
	Ref             QuestionRef `json:"question_ref"`
}

// Section is a named, contiguous run of slots starting at FirstSlot.
type Section struct {
	ID        int64  `json:"id"`
	ExamID    int64  `json:"exam_id"`
	Heading   string `json:"heading"`
	FirstSlot int    `json:"first_slot"`
	Shuffle   bool   `json:"shuffle"`
}

// QuestionInfo is what the structure engine needs to know about the question behind a slot.
type QuestionInfo struct {
	QType                  string `json:"qtype"`
	Length                 int    `json:"length"`
	CanFinishDuringAttempt bool   `json:"can_finish_during_attempt"`
}

// IsReal reports whether the item is a numbered question rather than a description or label.
func (qi QuestionInfo) IsReal() bool {
	return qi.Length > 0
}

// MissingQuestion describes a reference whose question cannot be found.
var MissingQuestion = QuestionInfo{QType: QTypeMissing, Length: 1}

// Question is an entry in the question bank.
type Question struct {
	ID         int64  `json:"id"`
	QType      string `json:"qtype"`
	Name       string `json:"name"`
	Text       string `json:"text"`
	Length     int    `json:"length"`
	CategoryID int64  `json:"category_id"`
	Version    int    `json:"version"`
}

// finishingQTypes lists the question types whose state can reach "finished"
// before the attempt is submitted.
var finishingQTypes = map[string]bool{
	"multichoice": true,
	"truefalse":   true,
	"shortanswer": true,
	"numerical":   true,
	"match":       true,
	"ddwtos":      true,
	"gapselect":   true,
	"calculated":  true,
}

// QTypeCanFinishDuringAttempt reports whether a question of the given type can finish mid-attempt.
func QTypeCanFinishDuringAttempt(qtype string) bool {
	return finishingQTypes[qtype]
}

// InfoFor builds the QuestionInfo for a bank question.
func InfoFor(q Question) QuestionInfo {
	length := q.Length
	if q.QType == QTypeDescription {
		length = 0
	}
	return QuestionInfo{
		QType:                  q.QType,
		Length:                 length,
		CanFinishDuringAttempt: QTypeCanFinishDuringAttempt(q.QType),
	}
}
