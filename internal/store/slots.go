package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pavelanni/examlayout/internal/model"
	"github.com/pavelanni/examlayout/internal/structure"
)

// LoadAll returns an exam's slots by position and its sections by first slot.
func (c conn) LoadAll(ctx context.Context, examID int64) ([]model.Slot, []model.Section, error) {
	rows, err := c.query(ctx,
		`SELECT s.id, s.exam_id, s.position, s.page, s.max_mark, s.require_previous, s.display_number,
		        r.kind, r.question_id, r.requested_version, r.category_id, r.recurse_subcategories, r.tag_filters
		 FROM exam_slots s
		 LEFT JOIN slot_question_refs r ON r.slot_id = s.id
		 WHERE s.exam_id = ?
		 ORDER BY s.position`, examID)
	if err != nil {
		return nil, nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		var sl model.Slot
		var (
			kind, tags      sql.NullString
			questionID, cat sql.NullInt64
			version         sql.NullInt64
			recurse         sql.NullBool
		)
		if err := rows.Scan(&sl.ID, &sl.ExamID, &sl.Position, &sl.Page, &sl.MaxMark, &sl.RequirePrevious, &sl.DisplayNumber,
			&kind, &questionID, &version, &cat, &recurse, &tags); err != nil {
			return nil, nil, fmt.Errorf("scan slot: %w", err)
		}
		sl.Ref = model.QuestionRef{
			Kind:                 model.RefKind(kind.String),
			QuestionID:           questionID.Int64,
			CategoryID:           cat.Int64,
			RecurseSubcategories: recurse.Bool,
		}
		if version.Valid {
			v := int(version.Int64)
			sl.Ref.RequestedVersion = &v
		}
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &sl.Ref.TagFilters); err != nil {
				return nil, nil, fmt.Errorf("decode tag filters of slot %d: %w", sl.ID, err)
			}
		}
		slots = append(slots, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	sections, err := c.loadSections(ctx, examID)
	if err != nil {
		return nil, nil, err
	}
	return slots, sections, nil
}

func (c conn) loadSections(ctx context.Context, examID int64) ([]model.Section, error) {
	rows, err := c.query(ctx,
		`SELECT id, exam_id, heading, first_slot, shuffle FROM exam_sections WHERE exam_id = ? ORDER BY first_slot`,
		examID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()
	var sections []model.Section
	for rows.Next() {
		var sec model.Section
		if err := rows.Scan(&sec.ID, &sec.ExamID, &sec.Heading, &sec.FirstSlot, &sec.Shuffle); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

// ApplyDelta writes a structure delta. Positions and first slots are moved through
// negative values first so the unique constraints hold after every statement.
func (t *txConn) ApplyDelta(ctx context.Context, examID int64, d structure.Delta) (structure.ApplyResult, error) {
	res := structure.ApplyResult{
		SlotIDs:    make(map[int64]int64, len(d.InsertedSlots)),
		SectionIDs: make(map[int64]int64, len(d.InsertedSections)),
	}

	for _, id := range d.DeletedSlots {
		if _, err := t.exec(ctx, `DELETE FROM slot_question_refs WHERE slot_id = ?`, id); err != nil {
			return res, fmt.Errorf("delete question ref of slot %d: %w", id, err)
		}
		if _, err := t.exec(ctx, `DELETE FROM exam_slots WHERE id = ? AND exam_id = ?`, id, examID); err != nil {
			return res, fmt.Errorf("delete slot %d: %w", id, err)
		}
	}
	for _, id := range d.DeletedSections {
		if _, err := t.exec(ctx, `DELETE FROM exam_sections WHERE id = ? AND exam_id = ?`, id, examID); err != nil {
			return res, fmt.Errorf("delete section %d: %w", id, err)
		}
	}

	// Slots.
	for _, sl := range d.UpdatedSlots {
		if _, err := t.exec(ctx, `UPDATE exam_slots SET position = ? WHERE id = ? AND exam_id = ?`, -sl.Position, sl.ID, examID); err != nil {
			return res, fmt.Errorf("park slot %d: %w", sl.ID, err)
		}
	}
	for _, sl := range d.UpdatedSlots {
		if _, err := t.exec(ctx,
			`UPDATE exam_slots SET position = ?, page = ?, max_mark = ?, require_previous = ?, display_number = ?
			 WHERE id = ? AND exam_id = ?`,
			sl.Position, sl.Page, sl.MaxMark, sl.RequirePrevious, sl.DisplayNumber, sl.ID, examID,
		); err != nil {
			return res, fmt.Errorf("update slot %d: %w", sl.ID, err)
		}
		if err := t.writeRef(ctx, sl.ID, sl.Ref); err != nil {
			return res, err
		}
	}
	for _, sl := range d.InsertedSlots {
		var id int64
		err := t.queryRow(ctx,
			`INSERT INTO exam_slots (exam_id, position, page, max_mark, require_previous, display_number)
			 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			examID, sl.Position, sl.Page, sl.MaxMark, sl.RequirePrevious, sl.DisplayNumber,
		).Scan(&id)
		if err != nil {
			return res, fmt.Errorf("insert slot at position %d: %w", sl.Position, err)
		}
		res.SlotIDs[sl.ID] = id
		if err := t.writeRef(ctx, id, sl.Ref); err != nil {
			return res, err
		}
	}

	// Sections.
	for _, sec := range d.UpdatedSections {
		if _, err := t.exec(ctx, `UPDATE exam_sections SET first_slot = ? WHERE id = ? AND exam_id = ?`, -sec.FirstSlot, sec.ID, examID); err != nil {
			return res, fmt.Errorf("park section %d: %w", sec.ID, err)
		}
	}
	for _, sec := range d.UpdatedSections {
		if _, err := t.exec(ctx,
			`UPDATE exam_sections SET heading = ?, first_slot = ?, shuffle = ? WHERE id = ? AND exam_id = ?`,
			sec.Heading, sec.FirstSlot, sec.Shuffle, sec.ID, examID,
		); err != nil {
			return res, fmt.Errorf("update section %d: %w", sec.ID, err)
		}
	}
	for _, sec := range d.InsertedSections {
		var id int64
		err := t.queryRow(ctx,
			`INSERT INTO exam_sections (exam_id, heading, first_slot, shuffle) VALUES (?, ?, ?, ?) RETURNING id`,
			examID, sec.Heading, sec.FirstSlot, sec.Shuffle,
		).Scan(&id)
		if err != nil {
			return res, fmt.Errorf("insert section at slot %d: %w", sec.FirstSlot, err)
		}
		res.SectionIDs[sec.ID] = id
	}
	return res, nil
}

func (t *txConn) writeRef(ctx context.Context, slotID int64, ref model.QuestionRef) error {
	tags := ref.TagFilters
	if tags == nil {
		tags = []string{}
	}
	tagJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tag filters: %w", err)
	}
	var version sql.NullInt64
	if ref.RequestedVersion != nil {
		version = sql.NullInt64{Int64: int64(*ref.RequestedVersion), Valid: true}
	}
	if _, err := t.exec(ctx, `DELETE FROM slot_question_refs WHERE slot_id = ?`, slotID); err != nil {
		return fmt.Errorf("replace question ref of slot %d: %w", slotID, err)
	}
	if _, err := t.exec(ctx,
		`INSERT INTO slot_question_refs (slot_id, kind, question_id, requested_version, category_id, recurse_subcategories, tag_filters)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		slotID, string(ref.Kind), ref.QuestionID, version, ref.CategoryID, ref.RecurseSubcategories, string(tagJSON),
	); err != nil {
		return fmt.Errorf("write question ref of slot %d: %w", slotID, err)
	}
	return nil
}
