package handlers

import (
	"net/http"

	middleware "github.com/markdave123-py/csrdesk/internal/api/middlewares"
	"github.com/markdave123-py/csrdesk/internal/services"
)

type AIHandler struct {
	generation *services.GenerationService
	res        *Responder
}

func NewAIHandler(generation *services.GenerationService, res *Responder) *AIHandler {
	return &AIHandler{generation: generation, res: res}
}

type generateRequest struct {
	StudyID     string   `json:"study_id" validate:"required"`
	SectionID   string   `json:"section_id" validate:"required"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens" validate:"omitempty,min=1,max=8192"`
	Temperature *float32 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

// GenerateSectionText drafts a section with the LLM and stores it as an ai version.
func (h *AIHandler) GenerateSectionText(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := h.res.Decode(r, &req); err != nil {
		h.res.Error(w, r, err)
		return
	}
	out, err := h.generation.Generate(r.Context(), services.GenerateInput{
		StudyID:         req.StudyID,
		SectionID:       req.SectionID,
		Prompt:          req.Prompt,
		MaxTokens:       req.MaxTokens,
		Temperature:     req.Temperature,
		User:            middleware.UserFromContext(r.Context()),
		RequestLanguage: middleware.RequestLanguage(r.Context()),
	})
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusCreated, out)
}
