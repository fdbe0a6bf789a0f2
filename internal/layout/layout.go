// Package layout reads and writes exam layout files: YAML descriptions of an exam's
// sections, pages and slots used to create exams in bulk and to export them.
package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/examlayout/internal/model"
)

// File is a whole exam layout.
type File struct {
	Name             string           `yaml:"name"`
	QuestionsPerPage int              `yaml:"questions_per_page,omitempty"`
	Navigation       model.Navigation `yaml:"navigation,omitempty"`
	Sections         []Section        `yaml:"sections"`
}

// Section is a run of slots under one heading. Every section after the first starts a new page.
type Section struct {
	Heading string `yaml:"heading,omitempty"`
	Shuffle bool   `yaml:"shuffle,omitempty"`
	Slots   []Slot `yaml:"slots"`
}

// Slot holds exactly one of Question, QuestionID or Random.
type Slot struct {
	Question        *Question `yaml:"question,omitempty"`
	QuestionID      int64     `yaml:"question_id,omitempty"`
	Version         *int      `yaml:"version,omitempty"`
	Random          *Random   `yaml:"random,omitempty"`
	MaxMark         *float64  `yaml:"max_mark,omitempty"`
	RequirePrevious bool      `yaml:"require_previous,omitempty"`
	DisplayNumber   string    `yaml:"display_number,omitempty"`
	NewPage         bool      `yaml:"new_page,omitempty"`
}

// Question is a question defined inline; importing adds it to the bank.
type Question struct {
	QType    string `yaml:"qtype"`
	Name     string `yaml:"name"`
	Text     string `yaml:"text,omitempty"`
	Length   *int   `yaml:"length,omitempty"`
	Category int64  `yaml:"category,omitempty"`
}

// Random draws a question from a bank category.
type Random struct {
	Category int64    `yaml:"category"`
	Recurse  bool     `yaml:"recurse,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

// DefaultMaxMark is used for slots without max_mark.
const DefaultMaxMark = 1.0

// Load reads and validates a layout file. It also returns the SHA-256 of the file
// contents so callers can skip files that were already imported.
func Load(path string) (*File, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read layout: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return f, hex.EncodeToString(sum[:]), nil
}

// Parse decodes and validates layout YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the layout before anything is written.
func (f *File) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("exam name is required")
	}
	if f.QuestionsPerPage < 0 {
		return fmt.Errorf("questions_per_page must not be negative")
	}
	switch f.Navigation {
	case "", model.NavFree, model.NavSequential:
	default:
		return fmt.Errorf("unknown navigation %q", f.Navigation)
	}
	for i, sec := range f.Sections {
		if len(sec.Slots) == 0 {
			return fmt.Errorf("section %d has no slots", i+1)
		}
		for j, sl := range sec.Slots {
			if err := sl.validate(); err != nil {
				return fmt.Errorf("section %d, slot %d: %w", i+1, j+1, err)
			}
		}
	}
	return nil
}

func (sl Slot) validate() error {
	sources := 0
	if sl.Question != nil {
		sources++
		if sl.Question.QType == "" || sl.Question.Name == "" {
			return fmt.Errorf("inline question needs qtype and name")
		}
		if sl.Question.Length != nil && *sl.Question.Length < 0 {
			return fmt.Errorf("question length must not be negative")
		}
	}
	if sl.QuestionID != 0 {
		sources++
	}
	if sl.Random != nil {
		sources++
	}
	if sources != 1 {
		return fmt.Errorf("exactly one of question, question_id or random is required")
	}
	if sl.Version != nil && sl.QuestionID == 0 {
		return fmt.Errorf("version only applies to question_id")
	}
	if sl.MaxMark != nil && *sl.MaxMark < 0 {
		return fmt.Errorf("max_mark must not be negative")
	}
	if utf8.RuneCountInString(sl.DisplayNumber) > 16 {
		return fmt.Errorf("display_number is longer than 16 characters")
	}
	return nil
}

// Mark returns the slot's max mark, applying the default.
func (sl Slot) Mark() float64 {
	if sl.MaxMark == nil {
		return DefaultMaxMark
	}
	return *sl.MaxMark
}

// BankQuestion converts an inline question to a bank question.
func (q Question) BankQuestion() model.Question {
	length := 1
	if q.Length != nil {
		length = *q.Length
	}
	return model.Question{QType: q.QType, Name: q.Name, Text: q.Text, Length: length, CategoryID: q.Category, Version: 1}
}

// Ref returns the reference for a slot that does not define an inline question.
func (sl Slot) Ref() model.QuestionRef {
	if sl.Random != nil {
		return model.RandomRef(sl.Random.Category, sl.Random.Recurse, sl.Random.Tags)
	}
	return model.FixedRef(sl.QuestionID, sl.Version)
}

// FromView turns a numbered structure back into a layout, referencing bank questions by id.
func FromView(v model.StructureView) *File {
	f := &File{
		Name:             v.Exam.Name,
		QuestionsPerPage: v.Exam.QuestionsPerPage,
		Navigation:       v.Exam.Navigation,
	}
	prevPage := 1
	for i, sv := range v.Sections {
		sec := Section{Heading: sv.Heading, Shuffle: sv.Shuffle}
		for j, slv := range sv.Slots {
			mark := slv.MaxMark
			sl := Slot{
				MaxMark:         &mark,
				RequirePrevious: slv.RequirePrevious,
				NewPage:         slv.Page != prevPage && !(i > 0 && j == 0),
			}
			if slv.Ref.Kind == model.RefRandom {
				sl.Random = &Random{Category: slv.Ref.CategoryID, Recurse: slv.Ref.RecurseSubcategories, Tags: slv.Ref.TagFilters}
			} else {
				sl.QuestionID = slv.Ref.QuestionID
				sl.Version = slv.Ref.RequestedVersion
			}
			if slv.Number != "" && slv.CustomNumber {
				sl.DisplayNumber = slv.Number
			}
			prevPage = slv.Page
			sec.Slots = append(sec.Slots, sl)
		}
		f.Sections = append(f.Sections, sec)
	}
	return f
}

// Marshal encodes a layout as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}
