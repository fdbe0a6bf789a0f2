package structure

import (
	"context"
	"fmt"

	"github.com/pavelanni/examlayout/internal/model"
)

// Source is the read side of the slot store: everything needed to build a Structure.
type Source interface {
	GetExam(ctx context.Context, examID int64) (model.Exam, error)
	// LoadAll returns the exam's slots ordered by position and sections ordered by first slot.
	LoadAll(ctx context.Context, examID int64) ([]model.Slot, []model.Section, error)
	// HasAnyAttempt is the attempt existence oracle behind the edit lock.
	HasAnyAttempt(ctx context.Context, examID int64) (bool, error)
	// Describe resolves a question reference.
	Describe(ctx context.Context, ref model.QuestionRef) (model.QuestionInfo, error)
}

// Tx is a Source bound to one store transaction that can also write a delta.
type Tx interface {
	Source
	ApplyDelta(ctx context.Context, examID int64, d Delta) (ApplyResult, error)
}

// SlotStore runs fn inside a single all-or-nothing transaction.
type SlotStore interface {
	Source
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Load reads one exam's structure, resolves every slot's question and derives editability.
func Load(ctx context.Context, src Source, examID int64) (*Structure, error) {
	exam, err := src.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	slots, sections, err := src.LoadAll(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load structure of exam %d: %w", examID, err)
	}
	hasAttempts, err := src.HasAnyAttempt(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("check attempts of exam %d: %w", examID, err)
	}
	infos := make(map[int64]model.QuestionInfo, len(slots))
	for _, sl := range slots {
		info, err := src.Describe(ctx, sl.Ref)
		if err != nil {
			return nil, fmt.Errorf("describe question in slot %d: %w", sl.ID, err)
		}
		infos[sl.ID] = info
	}
	return New(exam, slots, sections, infos, hasAttempts)
}
