package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/csrdesk/internal/api/middlewares"
	"github.com/markdave123-py/csrdesk/internal/core/templating"
	"github.com/markdave123-py/csrdesk/internal/services"
)

type TemplateHandler struct {
	templates *services.TemplateService
	res       *Responder
}

func NewTemplateHandler(templates *services.TemplateService, res *Responder) *TemplateHandler {
	return &TemplateHandler{templates: templates, res: res}
}

type templateQuery struct {
	Kind     string `form:"kind" validate:"omitempty,oneof=section_text prompt"`
	Language string `form:"language" validate:"omitempty,oneof=ru en"`
	Scope    string `form:"scope" validate:"max=64"`
}

// ListForSection returns active templates of one section code.
func (h *TemplateHandler) ListForSection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := templateQuery{Kind: q.Get("kind"), Language: q.Get("language"), Scope: q.Get("scope")}
	if err := h.res.Validate(query); err != nil {
		h.res.Error(w, r, err)
		return
	}
	list, err := h.templates.ListForSection(r.Context(), chi.URLParam(r, "sectionCode"), query.Kind, query.Language, query.Scope)
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusOK, list)
}

type createTemplateRequest struct {
	Name        string            `json:"name" validate:"required,max=255"`
	Description string            `json:"description"`
	Kind        string            `json:"kind" validate:"omitempty,oneof=section_text prompt"`
	SectionCode string            `json:"section_code" validate:"required,max=64"`
	Language    string            `json:"language" validate:"required,oneof=ru en"`
	Scope       string            `json:"scope" validate:"max=64"`
	Content     string            `json:"content" validate:"required"`
	Variables   map[string]string `json:"variables"`
	IsDefault   bool              `json:"is_default"`
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := h.res.Decode(r, &req); err != nil {
		h.res.Error(w, r, err)
		return
	}
	t, err := h.templates.Create(r.Context(), services.CreateTemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Kind:        req.Kind,
		SectionCode: req.SectionCode,
		Language:    req.Language,
		Scope:       req.Scope,
		Content:     req.Content,
		Variables:   req.Variables,
		IsDefault:   req.IsDefault,
		CreatedBy:   middleware.UserID(r.Context()),
	})
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusCreated, t)
}

type renderTemplateRequest struct {
	StudyID  string         `json:"study_id" validate:"required"`
	Context  map[string]any `json:"context"`
	Language string         `json:"language" validate:"omitempty,oneof=ru en"`
}

// Render previews a template against a study without saving a version.
func (h *TemplateHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req renderTemplateRequest
	if err := h.res.Decode(r, &req); err != nil {
		h.res.Error(w, r, err)
		return
	}
	out, err := h.templates.Render(r.Context(), chi.URLParam(r, "templateID"), req.StudyID, templating.FromAny(req.Context), req.Language)
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusOK, out)
}
