package editor

import (
	"context"

	"github.com/pavelanni/examlayout/internal/i18n"
	"github.com/pavelanni/examlayout/internal/model"
	"github.com/pavelanni/examlayout/internal/structure"
)

// View loads an exam and returns it numbered, in the language of ctx.
func (e *Editor) View(ctx context.Context, examID int64) (model.StructureView, error) {
	st, err := structure.Load(ctx, e.store, examID)
	if err != nil {
		return model.StructureView{}, err
	}
	return BuildView(ctx, st), nil
}

// BuildView runs the numbering pass over st.
func BuildView(ctx context.Context, st *structure.Structure) model.StructureView {
	numbers := st.DisplayNumbers()
	infoLabel := i18n.T(ctx, "InfoShort")
	noName := i18n.T(ctx, "SectionNoName")

	v := model.StructureView{
		Exam:          st.Exam(),
		Editable:      st.CanBeEdited(),
		SlotCount:     st.SlotCount(),
		QuestionCount: st.QuestionCount(),
		PageCount:     st.PageCount(),
		TotalMark:     st.TotalMark(),
	}
	slots := st.Slots()
	for _, sec := range st.Sections() {
		last, _ := st.LastSlotInSection(sec.ID)
		sv := model.SectionView{
			ID:        sec.ID,
			Heading:   sec.Heading,
			Label:     sec.Heading,
			FirstSlot: sec.FirstSlot,
			LastSlot:  last,
			Shuffle:   sec.Shuffle,
		}
		if sv.Label == "" {
			sv.Label = noName
		}
		for pos := sec.FirstSlot; pos <= last && pos <= len(slots); pos++ {
			sl := slots[pos-1]
			info, _ := st.QuestionInfo(pos)
			canDep, _ := st.CanAddDependency(pos)
			number := numbers[pos-1]
			if !info.IsReal() {
				number = infoLabel
			}
			sv.Slots = append(sv.Slots, model.SlotView{
				ID:               sl.ID,
				Position:         sl.Position,
				Page:             sl.Page,
				Number:           number,
				CustomNumber:     info.IsReal() && sl.DisplayNumber != "",
				QType:            info.QType,
				MaxMark:          sl.MaxMark,
				RequirePrevious:  sl.RequirePrevious,
				CanAddDependency: canDep,
				Ref:              sl.Ref,
			})
		}
		v.Sections = append(v.Sections, sv)
	}
	return v
}
