package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examlayout/internal/editor"
	"github.com/pavelanni/examlayout/internal/events"
	"github.com/pavelanni/examlayout/internal/i18n"
	"github.com/pavelanni/examlayout/internal/model"
	"github.com/pavelanni/examlayout/internal/store"
)

type testServer struct {
	t      *testing.T
	store  *store.Store
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	r := chi.NewRouter()
	r.Use(i18n.Middleware("en"))
	New(s, editor.New(s, s)).Routes(r)
	return &testServer{t: t, store: s, router: r}
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	ts.t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) view(rec *httptest.ResponseRecorder, wantStatus int) model.StructureView {
	ts.t.Helper()
	if rec.Code != wantStatus {
		ts.t.Fatalf("status = %d, want %d, body: %s", rec.Code, wantStatus, rec.Body.String())
	}
	var v model.StructureView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		ts.t.Fatalf("decode view: %v", err)
	}
	return v
}

func (ts *testServer) question(qtype string) int64 {
	ts.t.Helper()
	id, err := ts.store.InsertQuestion(context.Background(), model.Question{QType: qtype, Name: qtype, Length: 1})
	if err != nil {
		ts.t.Fatalf("InsertQuestion: %v", err)
	}
	return id
}

// examWithSlots creates an exam over HTTP and adds one slot per page given.
func (ts *testServer) examWithSlots(pages ...int) model.StructureView {
	ts.t.Helper()
	v := ts.view(ts.do(http.MethodPost, "/exams", `{"name":"Quiz"}`), http.StatusCreated)
	for _, p := range pages {
		body := fmt.Sprintf(`{"page":%d,"question":{"kind":"fixed","question_id":%d}}`, p, ts.question("multichoice"))
		v = ts.view(ts.do(http.MethodPost, fmt.Sprintf("/exams/%d/slots", v.Exam.ID), body), http.StatusOK)
	}
	return v
}

func allSlots(v model.StructureView) []model.SlotView {
	var out []model.SlotView
	for _, sec := range v.Sections {
		out = append(out, sec.Slots...)
	}
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error: %v (body %s)", err, rec.Body.String())
	}
	return e
}

func TestCreateAndGetExam(t *testing.T) {
	ts := newTestServer(t)

	v := ts.examWithSlots(1, 1)
	if v.SlotCount != 2 || v.Sections[0].Slots[1].Number != "2" {
		t.Errorf("view = %+v", v)
	}
	if v.Sections[0].Slots[0].MaxMark != 1 {
		t.Errorf("default max mark = %g, want 1", v.Sections[0].Slots[0].MaxMark)
	}

	got := ts.view(ts.do(http.MethodGet, fmt.Sprintf("/exams/%d", v.Exam.ID), ""), http.StatusOK)
	if got.Exam.Name != "Quiz" || got.SlotCount != 2 {
		t.Errorf("GET view = %+v", got)
	}

	rec := ts.do(http.MethodGet, "/exams", "")
	var exams []model.Exam
	if err := json.Unmarshal(rec.Body.Bytes(), &exams); err != nil || len(exams) != 1 {
		t.Errorf("list exams = %s (%v)", rec.Body.String(), err)
	}
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	v := ts.examWithSlots(1, 2)
	slots := allSlots(v)
	base := fmt.Sprintf("/exams/%d", v.Exam.ID)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unknown exam", http.MethodGet, "/exams/999", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad exam id", http.MethodGet, "/exams/abc", "", http.StatusBadRequest, "INVALID_TARGET"},
		{"bad json", http.MethodPost, base + "/slots", "{", http.StatusBadRequest, "INVALID_TARGET"},
		{"bad ref kind", http.MethodPost, base + "/slots", `{"question":{"kind":"other"}}`, http.StatusBadRequest, "INVALID_TARGET"},
		{"replace without kind", http.MethodPut, fmt.Sprintf("%s/slots/%d/question", base, slots[0].ID),
			`{"question_id":1}`, http.StatusBadRequest, "INVALID_TARGET"},
		{"page out of range", http.MethodPost, fmt.Sprintf("%s/slots/%d/move", base, slots[0].ID),
			fmt.Sprintf(`{"after_slot_id":%d,"page":5}`, slots[1].ID), http.StatusBadRequest, "INVALID_TARGET"},
		{"unknown page break action", http.MethodPost, fmt.Sprintf("%s/slots/%d/pagebreak", base, slots[1].ID),
			`{"action":"toggle"}`, http.StatusBadRequest, "INVALID_TARGET"},
		{"remove first section", http.MethodDelete, fmt.Sprintf("%s/sections/%d", base, v.Sections[0].ID), "",
			http.StatusUnprocessableEntity, "STRUCTURAL_VIOLATION"},
		{"missing max mark", http.MethodPut, fmt.Sprintf("%s/slots/%d/maxmark", base, slots[0].ID), `{}`,
			http.StatusBadRequest, "INVALID_TARGET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if e := decodeError(t, rec); e.Code != tt.wantCode || e.Title == "" {
				t.Errorf("error = %+v, want code %s with a title", e, tt.wantCode)
			}
		})
	}
}

func TestLockedExam(t *testing.T) {
	ts := newTestServer(t)
	v := ts.examWithSlots(1, 2)
	if _, err := ts.store.RecordAttempt(context.Background(), v.Exam.ID, "bob"); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/exams/%d/positions/1", v.Exam.ID), nil)
	req.Header.Set("Accept-Language", "ru")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	e := decodeError(t, rec)
	if e.Code != "STRUCTURE_LOCKED" {
		t.Errorf("code = %s, want STRUCTURE_LOCKED", e.Code)
	}
	if e.Title != "Структура заблокирована" {
		t.Errorf("title = %q, want the Russian title", e.Title)
	}
}

func TestEditingRoutes(t *testing.T) {
	ts := newTestServer(t)
	v := ts.examWithSlots(1, 1, 2)
	slots := allSlots(v)
	base := fmt.Sprintf("/exams/%d", v.Exam.ID)

	v = ts.view(ts.do(http.MethodPost, fmt.Sprintf("%s/slots/%d/move", base, slots[0].ID),
		fmt.Sprintf(`{"after_slot_id":%d,"page":2}`, slots[2].ID)), http.StatusOK)
	if got := allSlots(v); got[2].ID != slots[0].ID || got[2].Page != 2 {
		t.Errorf("after move: %+v", got)
	}

	v = ts.view(ts.do(http.MethodPost, fmt.Sprintf("%s/slots/%d/pagebreak", base, slots[2].ID), `{"action":"link"}`), http.StatusOK)
	if v.PageCount != 1 {
		t.Errorf("page count after link = %d, want 1", v.PageCount)
	}

	v = ts.view(ts.do(http.MethodPost, base+"/repaginate", `{"questions_per_page":1}`), http.StatusOK)
	if v.PageCount != 3 {
		t.Errorf("page count after repaginate = %d, want 3", v.PageCount)
	}

	v = ts.view(ts.do(http.MethodPost, base+"/sections", `{"page":3,"heading":"Part 2"}`), http.StatusOK)
	if len(v.Sections) != 2 || v.Sections[1].Heading != "Part 2" {
		t.Fatalf("sections = %+v", v.Sections)
	}
	sec := v.Sections[1].ID

	v = ts.view(ts.do(http.MethodPut, fmt.Sprintf("%s/sections/%d/heading", base, sec), `{"heading":"Finale"}`), http.StatusOK)
	v = ts.view(ts.do(http.MethodPut, fmt.Sprintf("%s/sections/%d/shuffle", base, sec), `{"shuffle":true}`), http.StatusOK)
	if got := v.Sections[1]; got.Heading != "Finale" || !got.Shuffle {
		t.Errorf("section = %+v", got)
	}

	first := allSlots(v)[0].ID
	second := allSlots(v)[1].ID
	v = ts.view(ts.do(http.MethodPut, fmt.Sprintf("%s/slots/%d/maxmark", base, first), `{"max_mark":4}`), http.StatusOK)
	v = ts.view(ts.do(http.MethodPut, fmt.Sprintf("%s/slots/%d/displaynumber", base, first), `{"display_number":"A"}`), http.StatusOK)
	v = ts.view(ts.do(http.MethodPut, fmt.Sprintf("%s/slots/%d/requireprevious", base, second), `{"require_previous":true}`), http.StatusOK)
	got := allSlots(v)
	if got[0].MaxMark != 4 || got[0].Number != "A" || !got[1].RequirePrevious {
		t.Errorf("slot settings = %+v %+v", got[0], got[1])
	}

	essay := ts.question(model.QTypeEssay)
	v = ts.view(ts.do(http.MethodPut, fmt.Sprintf("%s/slots/%d/question", base, first),
		fmt.Sprintf(`{"kind":"fixed","question_id":%d}`, essay)), http.StatusOK)
	if allSlots(v)[0].QType != model.QTypeEssay {
		t.Errorf("qtype after replace = %s", allSlots(v)[0].QType)
	}

	v = ts.view(ts.do(http.MethodDelete, fmt.Sprintf("%s/sections/%d", base, sec), ""), http.StatusOK)
	v = ts.view(ts.do(http.MethodDelete, base+"/positions/3", ""), http.StatusOK)
	if len(v.Sections) != 1 || v.SlotCount != 2 {
		t.Errorf("after removals: %d sections, %d slots", len(v.Sections), v.SlotCount)
	}

	rec := ts.do(http.MethodGet, base+"/events?limit=100", "")
	var evs []events.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &evs); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	want := []events.Type{
		events.SlotCreated, events.SlotCreated, events.SlotCreated,
		events.SlotMoved,
		events.PageBreakDeleted,
		events.ExamRepaginated,
		events.SectionCreated,
		events.SectionTitleUpdated,
		events.SectionShuffleUpdated,
		events.SlotMarkUpdated,
		events.SlotDisplayNumberUpdated,
		events.SlotRequirePreviousUpdated,
		events.SlotQuestionReplaced,
		events.SectionDeleted,
		events.SlotDeleted,
	}
	if len(evs) != len(want) {
		t.Fatalf("events = %d, want %d", len(evs), len(want))
	}
	for i, ev := range evs {
		if ev.Type != want[i] {
			t.Errorf("event %d = %s, want %s", i, ev.Type, want[i])
		}
	}
}

func TestImportAndExportLayout(t *testing.T) {
	ts := newTestServer(t)

	layoutYAML := `
name: Imported
sections:
  - heading: One
    slots:
      - question: {qtype: truefalse, name: T1}
      - random: {category: 3}
`
	v := ts.view(ts.do(http.MethodPost, "/exams/import", layoutYAML), http.StatusCreated)
	if v.Exam.Name != "Imported" || v.SlotCount != 2 {
		t.Fatalf("imported = %+v", v)
	}

	rec := ts.do(http.MethodGet, fmt.Sprintf("/exams/%d/layout", v.Exam.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "name: Imported") || !strings.Contains(body, "category: 3") {
		t.Errorf("exported layout:\n%s", body)
	}

	rec = ts.do(http.MethodPost, "/exams/import", "name: ''\nsections: []")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid layout status = %d, want 400", rec.Code)
	}
}
