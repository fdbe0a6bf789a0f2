package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examlayout/internal/apperr"
	"github.com/pavelanni/examlayout/internal/editor"
	"github.com/pavelanni/examlayout/internal/events"
	"github.com/pavelanni/examlayout/internal/i18n"
	"github.com/pavelanni/examlayout/internal/layout"
	"github.com/pavelanni/examlayout/internal/model"
	"github.com/pavelanni/examlayout/internal/store"
	"github.com/pavelanni/examlayout/internal/structure"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	editor *editor.Editor
}

// New creates a new Handler.
func New(s *store.Store, ed *editor.Editor) *Handler {
	return &Handler{store: s, editor: ed}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/exams", func(r chi.Router) {
		r.Get("/", h.handleListExams)
		r.Post("/", h.handleCreateExam)
		r.Post("/import", h.handleImport)
		r.Route("/{examID}", func(r chi.Router) {
			r.Get("/", h.handleGetExam)
			r.Get("/layout", h.handleExportLayout)
			r.Get("/events", h.handleListEvents)
			r.Post("/slots", h.handleAddSlot)
			r.Post("/slots/{slotID}/move", h.handleMoveSlot)
			r.Post("/slots/{slotID}/pagebreak", h.handlePageBreak)
			r.Put("/slots/{slotID}/maxmark", h.handleSetMaxMark)
			r.Put("/slots/{slotID}/requireprevious", h.handleSetRequirePrevious)
			r.Put("/slots/{slotID}/displaynumber", h.handleSetDisplayNumber)
			r.Put("/slots/{slotID}/question", h.handleReplaceQuestion)
			r.Delete("/positions/{pos}", h.handleRemoveSlot)
			r.Post("/repaginate", h.handleRepaginate)
			r.Post("/sections", h.handleAddSection)
			r.Put("/sections/{sectionID}/heading", h.handleSetSectionHeading)
			r.Put("/sections/{sectionID}/shuffle", h.handleSetSectionShuffle)
			r.Delete("/sections/{sectionID}", h.handleRemoveSection)
		})
	})
}

type apiError struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError maps structure errors to HTTP statuses; anything uncoded is a 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, titleID := http.StatusInternalServerError, "ErrInternal"
	code := apperr.CodeOf(err)
	switch code {
	case apperr.NotFound:
		status, titleID = http.StatusNotFound, "ErrNotFound"
	case apperr.StructureLocked:
		status, titleID = http.StatusConflict, "ErrStructureLocked"
	case apperr.StructuralViolation:
		status, titleID = http.StatusUnprocessableEntity, "ErrStructuralViolation"
	case apperr.InvalidTarget:
		status, titleID = http.StatusBadRequest, "ErrInvalidTarget"
	}
	msg := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Message
		if cause := ae.Unwrap(); cause != nil {
			msg += ": " + cause.Error()
		}
	}
	if code == "" {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		code, msg = "INTERNAL", "internal error"
	}
	respondJSON(w, status, apiError{Code: string(code), Title: i18n.T(r.Context(), titleID), Message: msg})
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	respondError(w, r, apperr.New(apperr.InvalidTarget, msg))
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, apperr.Newf(apperr.InvalidTarget, "invalid %s", name)
	}
	return id, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.InvalidTarget, "invalid JSON body", err)
	}
	return nil
}

// withExam parses the exam id and writes the view returned by fn.
func (h *Handler) withExam(w http.ResponseWriter, r *http.Request, fn func(examID int64) (model.StructureView, error)) {
	examID, err := idParam(r, "examID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	v, err := fn(examID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// withSlot is withExam for routes that also name a slot.
func (h *Handler) withSlot(w http.ResponseWriter, r *http.Request, fn func(examID, slotID int64) (model.StructureView, error)) {
	slotID, err := idParam(r, "slotID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.withExam(w, r, func(examID int64) (model.StructureView, error) {
		return fn(examID, slotID)
	})
}

func (h *Handler) withSection(w http.ResponseWriter, r *http.Request, fn func(examID, sectionID int64) (model.StructureView, error)) {
	sectionID, err := idParam(r, "sectionID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.withExam(w, r, func(examID int64) (model.StructureView, error) {
		return fn(examID, sectionID)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.store.ListExams(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	respondJSON(w, http.StatusOK, exams)
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var req model.Exam
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name == "" {
		badRequest(w, r, "name is required")
		return
	}
	v, err := h.editor.CreateExam(r.Context(), model.Exam{
		Name:             req.Name,
		QuestionsPerPage: req.QuestionsPerPage,
		Navigation:       req.Navigation,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		badRequest(w, r, "failed to read body")
		return
	}
	f, err := layout.Parse(data)
	if err != nil {
		respondError(w, r, apperr.Wrap(apperr.InvalidTarget, "invalid layout", err))
		return
	}
	v, err := h.editor.Import(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	h.withExam(w, r, func(examID int64) (model.StructureView, error) {
		return h.editor.View(r.Context(), examID)
	})
}

func (h *Handler) handleExportLayout(w http.ResponseWriter, r *http.Request) {
	examID, err := idParam(r, "examID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	v, err := h.editor.View(r.Context(), examID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	data, err := layout.FromView(v).Marshal()
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write layout", "error", err)
	}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	examID, err := idParam(r, "examID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit <= 0 {
			badRequest(w, r, "invalid limit")
			return
		}
	}
	evs, err := h.store.ListEvents(r.Context(), examID, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if evs == nil {
		evs = []events.Event{}
	}
	respondJSON(w, http.StatusOK, evs)
}

type addSlotRequest struct {
	Page     int               `json:"page"`
	Question model.QuestionRef `json:"question"`
	MaxMark  *float64          `json:"max_mark"`
}

func (h *Handler) handleAddSlot(w http.ResponseWriter, r *http.Request) {
	var req addSlotRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	mark := layout.DefaultMaxMark
	if req.MaxMark != nil {
		mark = *req.MaxMark
	}
	h.withExam(w, r, func(examID int64) (model.StructureView, error) {
		return h.editor.AddSlot(r.Context(), examID, req.Page, req.Question, mark)
	})
}

type moveRequest struct {
	AfterSlotID int64 `json:"after_slot_id"`
	Page        int   `json:"page"`
}

func (h *Handler) handleMoveSlot(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	h.withSlot(w, r, func(examID, slotID int64) (model.StructureView, error) {
		return h.editor.MoveSlot(r.Context(), examID, slotID, req.AfterSlotID, req.Page)
	})
}

func (h *Handler) handleRemoveSlot(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.Atoi(chi.URLParam(r, "pos"))
	if err != nil {
		badRequest(w, r, "invalid position")
		return
	}
	h.withExam(w, r, func(examID int64) (model.StructureView, error) {
		return h.editor.RemoveSlot(r.Context(), examID, pos)
	})
}

type pageBreakRequest struct {
	Action string `json:"action"`
}

func (h *Handler) handlePageBreak(w http.ResponseWriter, r *http.Request) {
	var req pageBreakRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	action, err := structure.ParsePageBreakAction(req.Action)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.withSlot(w, r, func(examID, slotID int64) (model.StructureView, error) {
		return h.editor.UpdatePageBreak(r.Context(), examID, slotID, action)
	})
}

func (h *Handler) handleRepaginate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionsPerPage int `json:"questions_per_page"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	h.withExam(w, r, func(examID int64) (model.StructureView, error) {
		return h.editor.Repaginate(r.Context(), examID, req.QuestionsPerPage)
	})
}

func (h *Handler) handleSetMaxMark(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MaxMark *float64 `json:"max_mark"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.MaxMark == nil {
		badRequest(w, r, "max_mark is required")
		return
	}
	h.withSlot(w, r, func(examID, slotID int64) (model.StructureView, error) {
		return h.editor.SetMaxMark(r.Context(), examID, slotID, *req.MaxMark)
	})
}

func (h *Handler) handleSetRequirePrevious(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequirePrevious bool `json:"require_previous"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	h.withSlot(w, r, func(examID, slotID int64) (model.StructureView, error) {
		return h.editor.SetRequirePrevious(r.Context(), examID, slotID, req.RequirePrevious)
	})
}

func (h *Handler) handleSetDisplayNumber(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayNumber string `json:"display_number"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	h.withSlot(w, r, func(examID, slotID int64) (model.StructureView, error) {
		return h.editor.SetDisplayNumber(r.Context(), examID, slotID, req.DisplayNumber)
	})
}

func (h *Handler) handleReplaceQuestion(w http.ResponseWriter, r *http.Request) {
	var ref model.QuestionRef
	if err := decode(r, &ref); err != nil {
		respondError(w, r, err)
		return
	}
	h.withSlot(w, r, func(examID, slotID int64) (model.StructureView, error) {
		return h.editor.ReplaceQuestion(r.Context(), examID, slotID, ref)
	})
}

type addSectionRequest struct {
	Page    int     `json:"page"`
	Heading *string `json:"heading"`
}

func (h *Handler) handleAddSection(w http.ResponseWriter, r *http.Request) {
	var req addSectionRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	h.withExam(w, r, func(examID int64) (model.StructureView, error) {
		return h.editor.AddSection(r.Context(), examID, req.Page, req.Heading)
	})
}

func (h *Handler) handleSetSectionHeading(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Heading string `json:"heading"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	h.withSection(w, r, func(examID, sectionID int64) (model.StructureView, error) {
		return h.editor.SetSectionHeading(r.Context(), examID, sectionID, req.Heading)
	})
}

func (h *Handler) handleSetSectionShuffle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Shuffle bool `json:"shuffle"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	h.withSection(w, r, func(examID, sectionID int64) (model.StructureView, error) {
		return h.editor.SetSectionShuffle(r.Context(), examID, sectionID, req.Shuffle)
	})
}

func (h *Handler) handleRemoveSection(w http.ResponseWriter, r *http.Request) {
	h.withSection(w, r, func(examID, sectionID int64) (model.StructureView, error) {
		return h.editor.RemoveSection(r.Context(), examID, sectionID)
	})
}
