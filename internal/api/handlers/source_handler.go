package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/csrdesk/internal/api/middlewares"
	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/services"
)

const maxUploadSize = 50 << 20

type SourceHandler struct {
	sources *services.SourceService
	res     *Responder
}

func NewSourceHandler(sources *services.SourceService, res *Responder) *SourceHandler {
	return &SourceHandler{sources: sources, res: res}
}

type uploadForm struct {
	Category     string `form:"category" validate:"required,oneof=protocol sap tlf csr_prev"`
	Language     string `form:"language" validate:"required,oneof=ru en"`
	VersionLabel string `form:"version_label" validate:"max=64"`
	RAGEnabled   string `form:"rag_enabled" validate:"omitempty,oneof=true false 1 0"`
}

// Upload stores a new source document and schedules its indexing.
func (h *SourceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.res.Error(w, r, apperr.Validation("file", err.Error()))
		return
	}

	form := uploadForm{
		Category:     r.FormValue("category"),
		Language:     r.FormValue("language"),
		VersionLabel: r.FormValue("version_label"),
		RAGEnabled:   r.FormValue("rag_enabled"),
	}
	if err := h.res.Validate(form); err != nil {
		h.res.Error(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.res.Error(w, r, apperr.Validation("file", "is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.res.Error(w, r, apperr.Validation("file", err.Error()))
		return
	}

	ragEnabled := true
	if form.RAGEnabled != "" {
		ragEnabled, _ = strconv.ParseBool(form.RAGEnabled)
	}

	doc, err := h.sources.Upload(r.Context(), services.UploadSourceInput{
		StudyID:      chi.URLParam(r, "studyID"),
		Category:     form.Category,
		Language:     form.Language,
		FileName:     filepath.Base(header.Filename),
		ContentType:  header.Header.Get("Content-Type"),
		VersionLabel: form.VersionLabel,
		Data:         data,
		RAGEnabled:   ragEnabled,
		UploadedBy:   middleware.UserID(r.Context()),
	})
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusCreated, doc)
}

func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))
	docs, err := h.sources.List(r.Context(), chi.URLParam(r, "studyID"), includeArchived)
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusOK, docs)
}

func (h *SourceHandler) Archive(w http.ResponseWriter, r *http.Request) {
	doc, err := h.sources.Archive(r.Context(), chi.URLParam(r, "sourceID"))
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusOK, doc)
}

func (h *SourceHandler) Restore(w http.ResponseWriter, r *http.Request) {
	doc, err := h.sources.Restore(r.Context(), chi.URLParam(r, "sourceID"))
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusOK, doc)
}

func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sources.Delete(r.Context(), chi.URLParam(r, "sourceID")); err != nil {
		h.res.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ingestResponse struct {
	SourceDocumentID string `json:"source_document_id"`
	ChunksCreated    int    `json:"chunks_created"`
}

// Ingest re-indexes a source synchronously.
func (h *SourceHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sourceID")
	n, err := h.sources.Reindex(r.Context(), id)
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusOK, ingestResponse{SourceDocumentID: id, ChunksCreated: n})
}

type contextResponse struct {
	StudyID  string            `json:"study_id"`
	Language string            `json:"language,omitempty"`
	Context  map[string]string `json:"context"`
}

// StudyContext returns the context_* blocks assembled from indexed sources.
func (h *SourceHandler) StudyContext(w http.ResponseWriter, r *http.Request) {
	studyID := chi.URLParam(r, "studyID")
	lang := r.URL.Query().Get("language")
	blocks, err := h.sources.StudyContext(r.Context(), studyID, lang)
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusOK, contextResponse{StudyID: studyID, Language: lang, Context: blocks})
}
