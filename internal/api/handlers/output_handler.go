package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/csrdesk/internal/api/middlewares"
	"github.com/markdave123-py/csrdesk/internal/core/templating"
	"github.com/markdave123-py/csrdesk/internal/services"
)

type OutputHandler struct {
	outputs *services.OutputService
	res     *Responder
}

func NewOutputHandler(outputs *services.OutputService, res *Responder) *OutputHandler {
	return &OutputHandler{outputs: outputs, res: res}
}

// GetDocument returns the study's output document, creating it on first
// access. ?language= sets the content language of a new document.
func (h *OutputHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.outputs.GetOrCreate(r.Context(), chi.URLParam(r, "studyID"), r.URL.Query().Get("language"))
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusOK, doc)
}

func (h *OutputHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.outputs.ListSections(r.Context(), chi.URLParam(r, "studyID"))
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusOK, sections)
}

func (h *OutputHandler) LatestVersion(w http.ResponseWriter, r *http.Request) {
	v, err := h.outputs.LatestVersion(r.Context(), chi.URLParam(r, "sectionID"))
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusOK, v)
}

type createVersionRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *OutputHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	var req createVersionRequest
	if err := h.res.Decode(r, &req); err != nil {
		h.res.Error(w, r, err)
		return
	}
	v, err := h.outputs.CreateVersion(r.Context(), chi.URLParam(r, "sectionID"), req.Text, middleware.UserID(r.Context()))
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusCreated, v)
}

type applyTemplateRequest struct {
	StudyID    string         `json:"study_id" validate:"required"`
	TemplateID string         `json:"template_id" validate:"required"`
	Context    map[string]any `json:"context"`
}

func (h *OutputHandler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req applyTemplateRequest
	if err := h.res.Decode(r, &req); err != nil {
		h.res.Error(w, r, err)
		return
	}
	out, err := h.outputs.ApplyTemplate(r.Context(), services.ApplyTemplateInput{
		StudyID:         req.StudyID,
		SectionID:       chi.URLParam(r, "sectionID"),
		TemplateID:      req.TemplateID,
		Extra:           templating.FromAny(req.Context),
		User:            middleware.UserFromContext(r.Context()),
		RequestLanguage: middleware.RequestLanguage(r.Context()),
	})
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusCreated, out)
}
