package layout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pavelanni/examlayout/internal/model"
)

func TestParseValid(t *testing.T) {
	f, err := Parse([]byte(`
name: Quiz
questions_per_page: 2
navigation: sequential
sections:
  - heading: Basics
    shuffle: true
    slots:
      - question: {qtype: multichoice, name: Q1, length: 2}
      - question_id: 12
        version: 3
        max_mark: 0.5
  - slots:
      - random: {category: 4, recurse: true, tags: [easy, go]}
        display_number: R
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Name != "Quiz" || f.QuestionsPerPage != 2 || f.Navigation != model.NavSequential {
		t.Errorf("header = %+v", f)
	}
	if len(f.Sections) != 2 || !f.Sections[0].Shuffle {
		t.Fatalf("sections = %+v", f.Sections)
	}

	inline := f.Sections[0].Slots[0]
	if q := inline.Question.BankQuestion(); q.Length != 2 || q.Version != 1 || q.QType != "multichoice" {
		t.Errorf("bank question = %+v", q)
	}
	if inline.Mark() != DefaultMaxMark {
		t.Errorf("default mark = %g, want %g", inline.Mark(), DefaultMaxMark)
	}

	byID := f.Sections[0].Slots[1]
	ref := byID.Ref()
	if ref.Kind != model.RefFixed || ref.QuestionID != 12 || ref.RequestedVersion == nil || *ref.RequestedVersion != 3 {
		t.Errorf("fixed ref = %+v", ref)
	}
	if byID.Mark() != 0.5 {
		t.Errorf("mark = %g, want 0.5", byID.Mark())
	}

	random := f.Sections[1].Slots[0].Ref()
	if random.Kind != model.RefRandom || random.CategoryID != 4 || !random.RecurseSubcategories || len(random.TagFilters) != 2 {
		t.Errorf("random ref = %+v", random)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "name: [", "failed to parse YAML"},
		{"no name", "sections: []", "exam name is required"},
		{"bad navigation", "name: x\nnavigation: random\nsections: []", "unknown navigation"},
		{"negative per page", "name: x\nquestions_per_page: -1\nsections: []", "must not be negative"},
		{"empty section", "name: x\nsections:\n  - heading: a\n    slots: []", "has no slots"},
		{"no source", "name: x\nsections:\n  - slots:\n      - max_mark: 1", "exactly one of"},
		{"two sources", "name: x\nsections:\n  - slots:\n      - question_id: 1\n        random: {category: 2}", "exactly one of"},
		{"version without id", "name: x\nsections:\n  - slots:\n      - random: {category: 2}\n        version: 1", "version only applies"},
		{"negative mark", "name: x\nsections:\n  - slots:\n      - question_id: 1\n        max_mark: -2", "max_mark must not be negative"},
		{"inline without name", "name: x\nsections:\n  - slots:\n      - question: {qtype: essay}", "needs qtype and name"},
		{"long number", "name: x\nsections:\n  - slots:\n      - question_id: 1\n        display_number: abcdefghijklmnopq", "longer than 16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadHashesContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quiz.yaml")
	data := []byte("name: Quiz\nsections:\n  - slots:\n      - question_id: 1\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	f, hash, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Name != "Quiz" || len(hash) != 64 {
		t.Errorf("Load = %q, hash %q", f.Name, hash)
	}

	if err := os.WriteFile(path, append(data, []byte("        max_mark: 2\n")...), 0o644); err != nil {
		t.Fatal(err)
	}
	_, hash2, err := Load(path)
	if err != nil {
		t.Fatalf("Load(changed): %v", err)
	}
	if hash2 == hash {
		t.Error("hash did not change with the file contents")
	}

	if _, _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing) succeeded")
	}
}

func TestFromView(t *testing.T) {
	v := model.StructureView{
		Exam: model.Exam{Name: "Quiz", QuestionsPerPage: 3, Navigation: model.NavFree},
		Sections: []model.SectionView{
			{Heading: "A", Slots: []model.SlotView{
				{Page: 1, Number: "i", MaxMark: 0, Ref: model.FixedRef(5, nil)},
				{Page: 1, Number: "1", MaxMark: 2, Ref: model.FixedRef(6, nil)},
				{Page: 2, Number: "Q2", CustomNumber: true, MaxMark: 1, RequirePrevious: true, Ref: model.FixedRef(7, nil)},
			}},
			{Heading: "B", Shuffle: true, Slots: []model.SlotView{
				{Page: 3, Number: "3", MaxMark: 1, Ref: model.RandomRef(9, true, []string{"t"})},
			}},
		},
	}

	f := FromView(v)
	if err := f.Validate(); err != nil {
		t.Fatalf("exported layout invalid: %v", err)
	}
	if f.Name != "Quiz" || f.QuestionsPerPage != 3 || len(f.Sections) != 2 {
		t.Fatalf("layout = %+v", f)
	}
	a := f.Sections[0].Slots
	if a[0].NewPage || a[1].NewPage || !a[2].NewPage {
		t.Errorf("new_page flags = %v %v %v, want false false true", a[0].NewPage, a[1].NewPage, a[2].NewPage)
	}
	if a[1].DisplayNumber != "" || a[2].DisplayNumber != "Q2" {
		t.Errorf("display numbers = %q %q", a[1].DisplayNumber, a[2].DisplayNumber)
	}
	if !a[2].RequirePrevious || a[0].Mark() != 0 {
		t.Errorf("slot settings lost: %+v", a)
	}
	b := f.Sections[1]
	if !b.Shuffle || b.Slots[0].NewPage || b.Slots[0].Random == nil || b.Slots[0].Random.Category != 9 {
		t.Errorf("second section = %+v", b)
	}

	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal): %v\n%s", err, data)
	}
	if len(back.Sections[0].Slots) != 3 || back.Sections[0].Slots[2].DisplayNumber != "Q2" {
		t.Errorf("round trip = %+v", back.Sections[0])
	}
}
